package block

import "testing"

func BenchmarkIDCT(b *testing.B) {
	var blk [64]int16
	for i := range blk {
		blk[i] = int16(i%32 - 16)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idct(&blk)
	}
}
