package models

// AnswerMode says whether an answer was grounded in retrieved context.
type AnswerMode string

const (
	ModeGrounded   AnswerMode = "grounded"
	ModeUngrounded AnswerMode = "ungrounded"
)

// IngestResult summarizes one dedup-and-insert pass over a document.
type IngestResult struct {
	Chunks   int `json:"chunks"`
	Inserted int `json:"inserted"`
	// Skipped counts chunks already present in the store or repeated within the document.
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Answer is the result of processing one request.
type Answer struct {
	Text    string        `json:"answer"`
	Mode    AnswerMode    `json:"mode"`
	Sources []string      `json:"sources,omitempty"` // IDs of the chunks used as context
	Ingest  *IngestResult `json:"ingest,omitempty"`
}
