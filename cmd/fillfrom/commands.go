package main

import (
	"github.com/esimov/fillfrom"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	flagWeight    float64
	flagRandom    bool
	flagSeed      int64
	flagStrength  float64
	flagTexture   string
	flagFilter    string
	flagComposite string
	flagBlend     string
	flagClip      bool
)

var inpaintCmd = &cobra.Command{
	Use:   "inpaint",
	Short: "Fill the selection from its surroundings",
	Long: `Fill the selected pixels with the weighted average of their unselected neighbours.
The selection is processed ring by ring, from its border inwards.

Examples:
  fillfrom inpaint --in photo.jpg --out fixed.jpg --mask scratches.png
  fillfrom inpaint --in photo.jpg --out fixed.jpg --rect 40,40,90,70 --weight 2 --random --seed 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		proc, preset, err := newProcessor(cmd, fillfrom.ModeInpaint)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("weight") {
			proc.Inpaint.WeightMultiplier = flagWeight
		}
		if flags.Changed("random") {
			proc.Inpaint.Randomize = flagRandom
		}
		if flags.Changed("seed") {
			proc.Inpaint.Seed = flagSeed
		}
		if err := checkFactor("weight", proc.Inpaint.WeightMultiplier); err != nil {
			return err
		}
		return run(proc, preset)
	},
}

var blurCmd = &cobra.Command{
	Use:   "blur",
	Short: "Blur the selection",
	Long: `Replace the selected pixels with the weighted average of all their neighbours.
The pixels closer to the selection center are blurred more times than the ones on its border.

Examples:
  fillfrom blur --in photo.jpg --out blurred.jpg --face --cc facefinder --strength 4
  fillfrom blur --in ./photos --out ./blurred --mask plates.png --conc 8`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		proc, preset, err := newProcessor(cmd, fillfrom.ModeBlur)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("weight") {
			proc.Blur.WeightMultiplier = flagWeight
		}
		if flags.Changed("random") {
			proc.Blur.Randomize = flagRandom
		}
		if flags.Changed("seed") {
			proc.Blur.Seed = flagSeed
		}
		if flags.Changed("strength") {
			proc.Blur.Strength = flagStrength
		}
		if err := checkFactor("weight", proc.Blur.WeightMultiplier); err != nil {
			return err
		}
		if err := checkFactor("strength", proc.Blur.Strength); err != nil {
			return err
		}
		return run(proc, preset)
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone a texture into the selection",
	Long: `Scale the texture image to the selection bounding box and paste it at the selection position.
The texture can be a local file or an URL. Animated GIFs contribute their first frame.

Examples:
  fillfrom clone --in wall.png --out out.png --rect 0,0,128,128 --texture bricks.png
  fillfrom clone --in wall.png --out out.png --mask hole.png --texture bricks.png --clip --blend multiply`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		proc, preset, err := newProcessor(cmd, fillfrom.ModeClone)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("texture") {
			proc.Clone.TexturePath = flagTexture
		}
		if flags.Changed("filter") {
			proc.Clone.Filter = flagFilter
		}
		if flags.Changed("op") {
			proc.Clone.Composite = flagComposite
		}
		if flags.Changed("blend") {
			proc.Clone.Blend = flagBlend
		}
		if flags.Changed("clip") {
			proc.Clone.ClipToSelection = flagClip
		}
		if proc.Clone.TexturePath == "" {
			return errors.Wrap(fillfrom.ErrNoTexture, "use the --texture flag")
		}
		return run(proc, preset)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{inpaintCmd, blurCmd} {
		cmd.Flags().Float64Var(&flagWeight, "weight", 1, "Weight multiplier [0.1, 10]")
		cmd.Flags().BoolVar(&flagRandom, "random", false, "Visit the neighbours in random order")
		cmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed (0 = time based)")
	}
	blurCmd.Flags().Float64Var(&flagStrength, "strength", 1, "Blur strength [0.1, 10]")

	cloneCmd.Flags().StringVar(&flagTexture, "texture", "", "Texture image file or URL")
	cloneCmd.Flags().StringVar(&flagFilter, "filter", "lanczos", "Resampling filter: lanczos, catmullrom, linear, box, nearest")
	cloneCmd.Flags().StringVar(&flagComposite, "op", "src_over", "Composite operation used for anchoring")
	cloneCmd.Flags().StringVar(&flagBlend, "blend", "", "Blend mode used for anchoring: darken, lighten, multiply, screen, overlay, difference, exclusion")
	cloneCmd.Flags().BoolVar(&flagClip, "clip", false, "Paste only into the selected pixels")
}

// checkFactor validates the multipliers coming from the command line the same way the presets are validated.
func checkFactor(name string, v float64) error {
	if v < fillfrom.MinFactor || v > fillfrom.MaxFactor {
		return errors.Errorf("%s should be in the [%v, %v] range, got %v", name, fillfrom.MinFactor, fillfrom.MaxFactor, v)
	}
	return nil
}
