package memory

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/recollect/ai"
	"github.com/hrygo/recollect/store"
	"github.com/hrygo/recollect/store/db/chromem"
)

// fakeEmbedder returns fixed vectors for known texts and a deterministic
// hash-derived unit vector for everything else.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out, nil
	}
	return hashVector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 4 }

func hashVector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, 4)
	var norm float64
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed%1000) + 1
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// scriptedLLM replays canned replies and records every prompt it saw.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts [][]ai.Message
}

func (s *scriptedLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, messages)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func newEmbeddedDriver(t *testing.T, tenants ...string) store.Driver {
	t.Helper()
	d := chromem.NewDB()
	for _, tenant := range tenants {
		require.NoError(t, d.CreateTenant(context.Background(), tenant))
	}
	return d
}

func newTestRepo(t *testing.T, embedder ai.EmbeddingService, tenants ...string) *Repository {
	t.Helper()
	s := store.New(chromem.NewDB())
	for _, tenant := range tenants {
		require.NoError(t, s.CreateTenant(context.Background(), tenant))
	}
	return NewRepository(s, embedder, Config{
		MergeDistance:     0.5,
		MergeTopK:         5,
		RetrievalDistance: 1.5,
		RetrievalTopK:     10,
	})
}

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }
func vec(v ...float32) []float32  { return v }
