package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkSplit(b *testing.B) {
	var sb strings.Builder
	for p := 0; p < 200; p++ {
		for s := 0; s < 6; s++ {
			fmt.Fprintf(&sb, "Sentence %d of paragraph %d talks about something. ", s, p)
		}
		sb.WriteString("\n\n")
	}
	text := sb.String()
	c := MustNew(DefaultChunkSize, DefaultChunkOverlap)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Split(text)
	}
}
