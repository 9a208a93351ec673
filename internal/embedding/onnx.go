//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	onnxInputs = []string{"input_ids", "attention_mask", "token_type_ids"}
	onnxOutput = "last_hidden_state"
)

// ONNXEmbedder runs a sentence-transformers style model with ONNX Runtime and
// mean-pools the token states under the attention mask. It requires CGO and
// the onnxruntime shared library. Calls are serialized because the session
// reuses one set of tensors.
type ONNXEmbedder struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	tokenizer  Tokenizer
	dimensions int
	maxTokens  int

	ids, mask, types *ort.Tensor[int64]
	hidden           *ort.Tensor[float32] // [1, maxTokens, dimensions]
}

// NewONNXEmbedder loads the model at modelPath. dimensions is the model's hidden size.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if dimensions <= 0 || maxTokens <= 0 {
		return nil, fmt.Errorf("onnx embedder needs positive dimensions and max tokens")
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	e := &ONNXEmbedder{tokenizer: &SimpleTokenizer{}, dimensions: dimensions, maxTokens: maxTokens}
	inputShape := ort.NewShape(1, int64(maxTokens))
	var err error
	if e.ids, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, e.fail("input_ids tensor", err)
	}
	if e.mask, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, e.fail("attention_mask tensor", err)
	}
	if e.types, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, e.fail("token_type_ids tensor", err)
	}
	if e.hidden, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(maxTokens), int64(dimensions))); err != nil {
		return nil, e.fail("output tensor", err)
	}
	e.session, err = ort.NewAdvancedSession(modelPath,
		onnxInputs, []string{onnxOutput},
		[]ort.ArbitraryTensor{e.ids, e.mask, e.types},
		[]ort.ArbitraryTensor{e.hidden},
		nil,
	)
	if err != nil {
		return nil, e.fail("session", err)
	}
	return e, nil
}

func (e *ONNXEmbedder) fail(what string, err error) error {
	_ = e.Close()
	return fmt.Errorf("failed to create ONNX %s: %w", what, err)
}

// Embed returns the normalized mean-pooled embedding for text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("onnx embedder is closed")
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.ids.GetData(), ids)
	copy(e.mask.GetData(), mask)
	copy(e.types.GetData(), types)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return normalized(meanPool(e.hidden.GetData(), mask, e.dimensions)), nil
}

// EmbedBatch embeds texts one at a time; the session holds a single sequence.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors. It is safe to call more than once.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Destroy())
		e.session = nil
	}
	for _, t := range []ort.ArbitraryTensor{e.ids, e.mask, e.types, e.hidden} {
		if t != nil && !isNilTensor(t) {
			errs = append(errs, t.Destroy())
		}
	}
	e.ids, e.mask, e.types, e.hidden = nil, nil, nil, nil
	return errors.Join(errs...)
}

func isNilTensor(t ort.ArbitraryTensor) bool {
	switch v := t.(type) {
	case *ort.Tensor[int64]:
		return v == nil
	case *ort.Tensor[float32]:
		return v == nil
	}
	return false
}
