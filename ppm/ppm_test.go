package ppm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidae/bjpeg/jpeg"
)

func TestWriteHeaderAndPayload(t *testing.T) {
	img := &jpeg.Image{
		Width:  2,
		Height: 1,
		Pix:    []byte{10, 20, 30, 40, 50, 60},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))

	want := append([]byte("P6\n2 1\n255\n"), img.Pix...)
	require.Equal(t, want, buf.Bytes())
}

func TestWriteRejectsMismatchedPixelCount(t *testing.T) {
	img := &jpeg.Image{Width: 2, Height: 2, Pix: []byte{1, 2, 3}}
	var buf bytes.Buffer
	require.Error(t, Write(&buf, img))
}
