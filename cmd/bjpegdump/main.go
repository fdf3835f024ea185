// Command bjpegdump decodes a baseline JPEG file and writes it out as a
// binary PPM image, the simplest possible way to check a decode by eye.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvidae/bjpeg/jpegerr"
	"github.com/corvidae/bjpeg/jpeg"
	"github.com/corvidae/bjpeg/ppm"
)

func main() {
	cmd := newRootCmd()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a decode failure's jpegerr.Kind to a distinct process
// exit status, so a caller scripting bjpegdump can tell a truncated
// file from an unsupported one without scraping stderr.
func exitCode(err error) int {
	switch jpegerr.KindOf(err) {
	case jpegerr.Truncated:
		return 2
	case jpegerr.MalformedStream:
		return 3
	case jpegerr.UnsupportedFormat:
		return 4
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	var (
		output  string
		markers bool
		mcus    bool
		dus     bool
	)

	cmd := &cobra.Command{
		Use:   "bjpegdump <input.jpg>",
		Short: "Decode a baseline JPEG file to a PPM image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], output, markers, mcus, dus)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PPM path (default: input path with .ppm)")
	cmd.Flags().BoolVar(&markers, "markers", false, "trace each marker as it is parsed")
	cmd.Flags().BoolVar(&mcus, "mcus", false, "trace each MCU as it is decoded")
	cmd.Flags().BoolVar(&dus, "du", false, "trace each data unit (component, block) as it is decoded")
	return cmd
}

func run(inputPath, outputPath string, markers, mcus, dus bool) error {
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	trace := &jpeg.Trace{
		Warn: func(format string, a ...interface{}) {
			fmt.Fprintf(os.Stderr, "bjpegdump: warning: "+format+"\n", a...)
		},
		Markers: markers,
		Mcu:     mcus,
		Du:      dus,
	}

	img, err := jpeg.DecodeAll(f, jpeg.WithTrace(trace))
	if err != nil {
		return reportError(inputPath, err)
	}

	// Render to an in-memory buffer first so a PPM render that fails
	// partway through never leaves a truncated file behind (a failed
	// decode has already returned above, before any file is created).
	var buf bytes.Buffer
	if err := ppm.Write(&buf, img); err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := buf.WriteTo(out); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s: %dx%d -> %s\n", inputPath, img.Width, img.Height, outputPath)
	return nil
}

func reportError(path string, err error) error {
	fmt.Fprintf(os.Stderr, "bjpegdump: %s: %s\n", path, err)
	return err
}

func defaultOutputPath(inputPath string) string {
	ext := ".ppm"
	for i := len(inputPath) - 1; i >= 0 && inputPath[i] != '/'; i-- {
		if inputPath[i] == '.' {
			return inputPath[:i] + ext
		}
	}
	return inputPath + ext
}
