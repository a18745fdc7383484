package compress

import (
	"fmt"
	"testing"
)

func BenchmarkAllCodecs_Compress(b *testing.B) {
	for codecName, codec := range getAllCodecs() {
		for _, items := range []int{10, 100, 1000} {
			b.Run(fmt.Sprintf("%s/%d_items", codecName, items), func(b *testing.B) {
				data := saveLikeImage(items)
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))

				for b.Loop() {
					if _, err := codec.Compress(data); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	for codecName, codec := range getAllCodecs() {
		for _, items := range []int{10, 100, 1000} {
			b.Run(fmt.Sprintf("%s/%d_items", codecName, items), func(b *testing.B) {
				data := saveLikeImage(items)
				compressed, err := codec.Compress(data)
				if err != nil {
					b.Fatal(err)
				}
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))

				for b.Loop() {
					if _, err := codec.Decompress(compressed); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
