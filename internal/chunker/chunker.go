// Package chunker splits document text into overlapping, size-bounded chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker is a recursive character splitter. Sizes are counted in characters (runes).
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New creates a chunker. chunkSize must be greater than chunkOverlap, and chunkOverlap must not be negative.
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkSize <= chunkOverlap {
		return nil, fmt.Errorf("chunk size (%d) must be greater than chunk overlap (%d)", chunkSize, chunkOverlap)
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// MustNew is New for known-good parameters.
func MustNew(chunkSize, chunkOverlap int) *Chunker {
	c, err := New(chunkSize, chunkOverlap)
	if err != nil {
		panic(err)
	}
	return c
}

// ChunkSize returns the maximum chunk length in characters.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the overlap carried between adjacent chunks.
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// Split returns the chunks of text in document order.
// Whitespace-only text yields nil. A chunk only exceeds the chunk size when
// it is a single piece that no separator could break further.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := c.split(text, c.separators)
	out := make([]string, 0, len(pieces))
	for i, p := range pieces {
		if i > 0 && !p.carried {
			p.text = c.withOverlap(out[i-1], p.text)
		}
		out = append(out, p.text)
	}
	return out
}

// chunk is a merged chunk; carried is set when it starts with text from its predecessor.
type chunk struct {
	text    string
	carried bool
}

func (c *Chunker) split(text string, separators []string) []chunk {
	separator := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			next = separators[i+1:]
			break
		}
	}

	var out []chunk
	var good []string
	for _, piece := range splitOn(text, separator) {
		if runeLen(piece) < c.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, c.merge(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			out = append(out, chunk{text: piece})
		} else {
			out = append(out, c.split(piece, next)...)
		}
	}
	if len(good) > 0 {
		out = append(out, c.merge(good, separator)...)
	}
	return out
}

// merge greedily packs pieces into chunks, carrying trailing pieces of up to
// chunkOverlap characters into the next chunk.
func (c *Chunker) merge(pieces []string, separator string) []chunk {
	sepLen := runeLen(separator)
	var (
		chunks  []chunk
		current []string
		total   int
		carried bool
	)
	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		l := runeLen(p)
		if total+l+joinCost() > c.chunkSize && len(current) > 0 {
			if text := join(current, separator); text != "" {
				chunks = append(chunks, chunk{text: text, carried: carried})
			}
			for total > c.chunkOverlap || (total > 0 && total+l+joinCost() > c.chunkSize) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
			carried = len(current) > 0
		}
		current = append(current, p)
		total += l
		if len(current) > 1 {
			total += sepLen
		}
	}
	if text := join(current, separator); text != "" {
		chunks = append(chunks, chunk{text: text, carried: carried})
	}
	return chunks
}

// withOverlap prefixes next with the end of prev when no whole piece could be
// carried between them. The prefix is at most chunkOverlap characters, starts
// after whitespace where prev has any, and never pushes next over the chunk size.
func (c *Chunker) withOverlap(prev, next string) string {
	budget := min(c.chunkOverlap, c.chunkSize-runeLen(next)-1)
	if budget <= 0 {
		return next
	}
	tail := overlapTail(prev, budget)
	if tail == "" {
		return next
	}
	return tail + " " + next
}

// overlapTail returns at most n trailing characters of s, dropping a leading
// partial word when the cut falls inside one.
func overlapTail(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return strings.TrimSpace(s)
	}
	start := len(r) - n
	if !unicode.IsSpace(r[start-1]) {
		for i := start; i < len(r); i++ {
			if unicode.IsSpace(r[i]) {
				start = i + 1
				break
			}
		}
	}
	return strings.TrimSpace(string(r[start:]))
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		parts = make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(text, separator)
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func join(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
