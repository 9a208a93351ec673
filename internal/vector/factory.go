package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeChromem uses a chromem-go in-memory collection.
	IndexTypeChromem IndexType = "chromem"
)

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "memory" (default), "chromem".
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypeChromem:
		return NewChromemIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, chromem)", indexType)
	}
}

// ValidIndexType reports whether NewVectorIndex accepts indexType.
func ValidIndexType(indexType string) bool {
	switch IndexType(indexType) {
	case IndexTypeMemory, IndexTypeChromem, "":
		return true
	}
	return false
}
