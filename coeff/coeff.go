// Package coeff holds the small data types shared between the MCU reader
// and block reconstruction: neither package should need to import the
// other just to pass an 8x8 block of coefficients around.
package coeff

// Block is 64 signed coefficients for one component, one data unit. While
// still in the entropy-decoded domain it is zig-zag ordered; after
// reordering (see ZigZag below) it is row-major.
type Block [64]int16

// ZigZag[r][c] gives the zig-zag scan position whose value belongs at
// natural row r, column c. It is the fixed 8x8 permutation defined by the
// JPEG zig-zag scan order.
var ZigZag = [8][8]uint8{
	{0, 1, 5, 6, 14, 15, 27, 28},
	{2, 4, 7, 13, 16, 26, 29, 42},
	{3, 8, 12, 17, 25, 30, 41, 43},
	{9, 11, 18, 24, 31, 40, 44, 53},
	{10, 19, 23, 32, 39, 45, 52, 54},
	{20, 22, 33, 38, 46, 51, 55, 60},
	{21, 34, 37, 47, 50, 56, 59, 61},
	{35, 36, 48, 49, 57, 58, 62, 63},
}
