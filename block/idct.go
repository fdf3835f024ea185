package block

import "math"

// kernel[i][j] = round(alpha(j) * cos((2i+1)*j*pi/16) * 1024), the 10-bit
// fixed-point cosine basis of spec §4.5. It is computed once at package
// init from the float64 definition; every actual IDCT call below is
// pure integer arithmetic.
var kernel [8][8]int32

func init() {
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			alpha := 1.0
			if j == 0 {
				alpha = 1.0 / math.Sqrt2
			}
			c := alpha * math.Cos(float64(2*i+1)*float64(j)*math.Pi/16.0)
			kernel[i][j] = int32(math.Round(c * 1024))
		}
	}
}

// descale combines the spec's "divide by 4, then arithmetic-shift right
// by 20" into one rounded shift by 22 bits (the two operations commute
// with the preceding multiply-accumulate, so folding them changes
// nothing but the rounding point, which this compensates for with a
// round-to-nearest bias).
func descale(x int64) int16 {
	const shift = 22
	return int16((x + (1 << (shift - 1))) >> shift)
}

// spatialBlock is a reconstructed 8x8 block of signed spatial-domain
// samples, still centred on zero (the level shift to 0..255 happens in
// YCbCrToRGB, combined with the final clamp).
type spatialBlock [64]int16

// idct applies the 2-D inverse DCT to a dequantized, zig-zag-reordered
// (i.e. already row-major) block, as two successive 1-D passes over an
// int64 accumulator.
func idct(blk *[64]int16) spatialBlock {
	var col [8][8]int64 // col[x][v] = sum_u kernel[x][u] * blk[u][v]
	for x := 0; x < 8; x++ {
		for v := 0; v < 8; v++ {
			var sum int64
			for u := 0; u < 8; u++ {
				sum += int64(blk[u*8+v]) * int64(kernel[x][u])
			}
			col[x][v] = sum
		}
	}
	var out spatialBlock
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			var sum int64
			for v := 0; v < 8; v++ {
				sum += col[x][v] * int64(kernel[y][v])
			}
			out[x*8+y] = descale(sum)
		}
	}
	return out
}
