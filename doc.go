/*
Package fillfrom fills a selected image area using the pixels around it.

Three processing modes are supported:

  - inpaint: the selected pixels are replaced with the distance weighted average of their
    unselected neighbours. The selection shrinks by one pixel ring after each pass, so the
    area is filled from its border inwards.
  - blur: like inpainting, but every neighbour contributes, selected or not. The pixels
    closer to the center of the selection are blurred more times.
  - clone: a texture image is scaled to the bounding box of the selection and pasted over it.

The package provides a command line interface, supporting various flags for selecting the area
and tuning the processing modes. To check the supported commands type:

	$ fillfrom --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"image"
		"os"

		"github.com/esimov/fillfrom"
	)

	func main() {
		in, err := os.Open("input.jpg")
		if err != nil {
			fmt.Printf("Error opening the source image: %s", err.Error())
			return
		}
		defer in.Close()

		out, err := os.Create("output.png")
		if err != nil {
			fmt.Printf("Error creating the destination image: %s", err.Error())
			return
		}
		defer out.Close()

		p := &fillfrom.Processor{
			Mode:    fillfrom.ModeInpaint,
			Inpaint: fillfrom.InpaintConfig{WeightMultiplier: 1},
			Rect:    image.Rect(120, 80, 180, 110),
		}

		if err := p.Process(in, out); err != nil {
			fmt.Printf("Error filling the image: %s", err.Error())
		}
	}

The fill engine works over the Layer and Selection interfaces, so it can be used with
other pixel stores and selection implementations than the provided Drawable and Mask.
*/
package fillfrom
