package fillfrom

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/esimov/fillfrom/utils"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

var (
	// Supported source files.
	validExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp"}
	// Supported destination files.
	encodableExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}
)

// Ops holds the source and destination of the fill operation.
// Src can be an image file, an URL, a directory or the pipe name.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the relevant information about the processed image.
type result struct {
	path string
	err  error
}

// Execute fills the selection of the source image(s) and writes the result(s) to the destination.
// A directory source is processed recursively by a pool of concurrently running workers.
func (p *Processor) Execute(op *Ops) error {
	if p.Spinner == nil {
		spinnerText := fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ FILLFROM", utils.StatusMessage),
			utils.DecorateText(fmt.Sprintf("⇢ %s in progress...", p.Mode), utils.DefaultMessage),
		)
		p.Spinner = utils.NewSpinner(spinnerText, time.Millisecond*80, true)
	}

	var (
		fs  os.FileInfo
		err error
	)

	src := op.Src
	// Check if source path is a local image or URL.
	if utils.IsValidUrl(op.Src) {
		f, err := utils.DownloadImage(op.Src)
		if err != nil {
			return errors.Wrap(err, "failed to load the source image")
		}
		f.Close()
		defer os.Remove(f.Name())

		src = f.Name()
	}

	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return errors.Wrap(err, "failed to load the source image")
	}

	// Capture CTRL-C signal and restores back the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	finished := make(chan struct{})
	defer func() {
		signal.Stop(signalChan)
		close(finished)
	}()
	go func() {
		select {
		case <-signalChan:
			p.Spinner.RestoreCursor()
			os.Exit(1)
		case <-finished:
		}
	}()

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		if err := os.MkdirAll(op.Dst, 0755); err != nil {
			return errors.Wrap(err, "unable to create the destination directory")
		}

		// Limit the concurrently running workers to maxWorkers.
		workers := op.Workers
		if workers <= 0 || workers > maxWorkers {
			workers = utils.Min(runtime.NumCPU(), maxWorkers)
		}

		var wg sync.WaitGroup
		ch := make(chan result)
		done := make(chan struct{})
		defer close(done)

		paths, errc := walkDir(done, src, validExtensions)

		p.Spinner.Start()

		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				op.consumer(p, src, ch, done, paths)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		var failed int
		for res := range ch {
			if res.err != nil {
				failed++
				err = res.err
			}
			op.printOpStatus(res.path, res.err)
		}
		p.Spinner.Stop()

		if werr := <-errc; werr != nil {
			return errors.Wrap(werr, "directory walk failed")
		}
		if failed > 0 {
			return errors.Wrapf(err, "%d image(s) could not be processed", failed)
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0 || mode&os.ModeCharDevice != 0:
		ext := strings.ToLower(filepath.Ext(op.Dst))
		if op.Dst != op.PipeName && !utils.Contains(encodableExtensions, ext) {
			return errors.Wrap(ErrUnsupportedFormat, ext)
		}

		p.Spinner.Start()
		err = op.process(*p, src, op.Dst)
		p.Spinner.Stop()

		op.printOpStatus(op.Dst, err)
		if err != nil {
			return err
		}
	default:
		return errors.Errorf("unsupported source: %s", op.Src)
	}

	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage),
	)
	return nil
}

// consumer reads the path names from the paths channel and fills the images one by one.
// Every image is processed by its own copy of the processor, the frames of
// each image going into a separate subdirectory.
func (op *Ops) consumer(
	p *Processor,
	root string,
	res chan<- result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		rel, dst := op.destination(root, src)

		proc := *p
		if proc.FramesDir != "" {
			proc.FramesDir = filepath.Join(p.FramesDir, strings.TrimSuffix(rel, filepath.Ext(rel)))
		}
		err := os.MkdirAll(filepath.Dir(dst), 0755)
		if err == nil {
			err = op.process(proc, src, dst)
		}

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// destination maps a source file found under root to its output path, keeping
// the relative directory structure. Sources which can't be encoded back into
// their own format are saved as png.
func (op *Ops) destination(root, src string) (rel, dst string) {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		rel = filepath.Base(src)
	}
	dst = filepath.Join(op.Dst, rel)
	if !utils.Contains(encodableExtensions, strings.ToLower(filepath.Ext(dst))) {
		dst = strings.TrimSuffix(dst, filepath.Ext(dst)) + ".png"
	}
	return rel, dst
}

// process runs the processor over a single image.
func (op *Ops) process(p Processor, in, out string) error {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if err := f.Close(); err != nil {
				p.logger().Warn("could not close the opened file", "err", err)
			}
		}
	}()

	err = p.Process(src, dst)
	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			// remove the generated image file in case of an error
			os.Remove(f.Name())
		}
	}
	return err
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to open the source file")
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.Wrap(err, "unable to create the destination file")
		}
	}
	return src, dst, nil
}

// printOpStatus displays the relevant information about the processed image.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n",
			utils.DecorateText("⚡ FILLFROM ✘ processing failed:", utils.ErrorMessage),
			utils.Decoratef(utils.DefaultMessage, "%s\n\tReason: %v", filepath.Base(fname), err),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(os.Stderr, "\nThe image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan struct{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if !utils.Contains(srcExts, strings.ToLower(filepath.Ext(f.Name()))) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}
