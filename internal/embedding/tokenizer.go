package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// Tokenizer produces the three BERT inputs for one sequence, padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const (
	clsToken  = 101
	sepToken  = 102
	firstWord = 1000 // IDs below this are reserved for special tokens
	vocabSize = 30522
)

// SimpleTokenizer maps lowercased words to hashed vocabulary IDs. It stands in
// for a WordPiece vocabulary, so it only suits models trained with the same hashing.
type SimpleTokenizer struct{}

// Tokenize returns [CLS] words... [SEP] followed by padding.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	n := 0
	put := func(id int64) {
		inputIDs[n] = id
		attentionMask[n] = 1
		n++
	}
	put(clsToken)
	for _, w := range SplitWords(text) {
		if n == maxTokens-1 {
			break
		}
		put(int64(firstWord + HashString(strings.ToLower(w))%(vocabSize-firstWord)))
	}
	put(sepToken)
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords splits text on Unicode white space. It returns nil for blank text.
func SplitWords(text string) []string {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic non-negative FNV-1a hash of s.
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32())
}
