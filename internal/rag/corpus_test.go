package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/chunker"
	"github.com/hyperjump/kotae/internal/contentid"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/prompts"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

const (
	corpusDocs       = 40
	corpusDimensions = 4096
)

var corpusTopics = []string{"astronomy", "baking", "cycling", "databases", "economics", "forestry", "geology", "harbors"}

// corpusDoc is a short document carrying a unique two-word signature.
func corpusDoc(i int) string {
	return fmt.Sprintf("Record %d covers %s in some detail. Its signature is sig%03dalpha sig%03dbeta.",
		i, corpusTopics[i%len(corpusTopics)], i, i)
}

func corpusQuery(i int) string {
	return fmt.Sprintf("Which record has signature sig%03dalpha sig%03dbeta?", i, i)
}

// TestCorpus_retrievesSignatureDocument ingests many small documents for one user
// and checks each signature query retrieves its own document first.
func TestCorpus_retrievesSignatureDocument(t *testing.T) {
	for _, indexType := range []string{"memory", "chromem"} {
		t.Run(indexType, func(t *testing.T) {
			ctx := context.Background()
			stores := vectorstore.NewManager(filepath.Join(t.TempDir(), "users"), vectorstore.WithIndexType(indexType))
			defer stores.Close()
			emb := embedding.NewHashingEmbedder(corpusDimensions)
			gen := &llm.Mock{} // echoes the prompt
			ps, err := prompts.New("")
			require.NoError(t, err)
			retriever, err := NewRetriever(emb, DefaultK, DefaultFetchK, DefaultLambda)
			require.NoError(t, err)
			p := NewPipeline(chunker.MustNew(chunker.DefaultChunkSize, chunker.DefaultChunkOverlap),
				stores, emb, retriever, NewSynthesizer(gen, ps, DefaultLanguage))

			for i := 0; i < corpusDocs; i++ {
				res, err := p.Ingest(ctx, "corpus", corpusDoc(i))
				require.NoError(t, err)
				require.Equal(t, 1, res.Inserted)
			}
			h, err := stores.OpenOrCreate(ctx, "corpus")
			require.NoError(t, err)
			n, err := h.Count(ctx)
			require.NoError(t, err)
			require.EqualValues(t, corpusDocs, n)

			for i := 0; i < corpusDocs; i++ {
				got, err := retriever.Retrieve(ctx, h, corpusQuery(i), 0)
				require.NoError(t, err)
				require.Len(t, got, DefaultK)
				assert.Equal(t, contentid.ID(corpusDoc(i)), got[0].ID, "query %d", i)
				assert.NotEqual(t, got[0].ID, got[1].ID)
			}

			ans, err := p.Process(ctx, &models.AskRequest{User: "corpus", Question: corpusQuery(7), Document: corpusDoc(7)})
			require.NoError(t, err)
			assert.Equal(t, models.ModeGrounded, ans.Mode)
			assert.Equal(t, 0, ans.Ingest.Inserted)
			assert.True(t, strings.Contains(ans.Text, "sig007alpha"), "prompt should carry the signature document")
			require.NotEmpty(t, ans.Sources)
			assert.Equal(t, contentid.ID(corpusDoc(7)), ans.Sources[0])
		})
	}
}
