// Package ppm writes a decoded jpeg.Image out as a binary PPM (P6) file,
// the simplest possible sink for checking a decode by eye.
package ppm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/corvidae/bjpeg/jpeg"
)

// Write emits img to w as a P6 PPM: the "P6\nW H\n255\n" header followed
// by exactly Width*Height*3 raw RGB bytes.
func Write(w io.Writer, img *jpeg.Image) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return err
	}
	want := img.Width * img.Height * 3
	if len(img.Pix) != want {
		return fmt.Errorf("ppm: image has %d pixel bytes, expected %d for %dx%d", len(img.Pix), want, img.Width, img.Height)
	}
	if _, err := bw.Write(img.Pix); err != nil {
		return err
	}
	return bw.Flush()
}
