// Package tools contains agent-facing tools backed by the memory core.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/recollect/memory"
)

const (
	// Upper bound on queries per call to keep fan-out bounded.
	maxRecallQueries = 8

	recallTimeout = 30 * time.Second

	// Returned to the model in place of an error so the agent loop keeps
	// running when retrieval is down.
	recallUnavailable = "Memory retrieval is temporarily unavailable."
)

// RecallTool retrieves stored memories relevant to one or more queries. It
// is handed to the agent loop, so Run never returns an error for runtime
// failures; the model gets a plain sentence instead and can carry on.
type RecallTool struct {
	repo         *memory.Repository
	tenantGetter func(ctx context.Context) string

	mu   sync.Mutex
	docs []QueryResult
}

// QueryResult is one query's raw result set, buffered before the dedup
// pass so out-of-band consumers see every hit, including repeats across
// queries.
type QueryResult struct {
	Query   string          `json:"query"`
	Records []memory.Record `json:"summaries"`
}

// NewRecallTool creates a new memory recall tool.
func NewRecallTool(repo *memory.Repository, tenantGetter func(ctx context.Context) string) (*RecallTool, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo cannot be nil")
	}
	if tenantGetter == nil {
		return nil, fmt.Errorf("tenantGetter cannot be nil")
	}
	return &RecallTool{repo: repo, tenantGetter: tenantGetter}, nil
}

// Name returns the name of the tool.
func (t *RecallTool) Name() string {
	return "memory_recall"
}

// Description returns a description of what the tool does.
func (t *RecallTool) Description() string {
	return `Recall stored memories about the user relevant to one or more queries.

Input: {"queries": ["topic one", "topic two"]}
- queries (required): one or more short search phrases

Output: JSON array of memories, each with "summary" and "turn".`
}

// RecallInput represents the input for memory recall.
type RecallInput struct {
	Queries []string `json:"queries"`
}

type recallHit struct {
	Summary string `json:"summary"`
	Turn    *int   `json:"turn"`
}

// Run executes the recall. Queries run in parallel; results are flattened
// in query order and deduplicated on (summary, turn).
func (t *RecallTool) Run(ctx context.Context, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, recallTimeout)
	defer cancel()

	var recallInput RecallInput
	if err := json.Unmarshal([]byte(input), &recallInput); err != nil {
		return "", fmt.Errorf("invalid JSON input: %w", err)
	}

	queries := make([]string, 0, len(recallInput.Queries))
	for _, q := range recallInput.Queries {
		if strings.TrimSpace(q) != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return "", fmt.Errorf("queries cannot be empty")
	}
	if len(queries) > maxRecallQueries {
		queries = queries[:maxRecallQueries]
	}

	tenant := t.tenantGetter(ctx)

	pages := make([]*memory.Page, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			page, err := t.repo.Search(gctx, tenant, &memory.SearchRequest{
				Query: query,
				Mode:  memory.ModeSimilarity,
			})
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("memory recall failed", "tenant", tenant, "queries", len(queries), "error", err)
		return recallUnavailable, nil
	}

	t.mu.Lock()
	for i, page := range pages {
		t.docs = append(t.docs, QueryResult{Query: queries[i], Records: page.Data})
	}
	t.mu.Unlock()

	seen := map[string]bool{}
	hits := []recallHit{}
	for _, page := range pages {
		for _, record := range page.Data {
			key := record.Summary
			if record.Turn != nil {
				key += "\x00" + strconv.Itoa(*record.Turn)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, recallHit{Summary: record.Summary, Turn: record.Turn})
		}
	}

	out, err := json.Marshal(hits)
	if err != nil {
		slog.Error("memory recall encode failed", "error", err)
		return recallUnavailable, nil
	}
	return string(out), nil
}

// Docs returns the raw per-query result sets retrieved since the last
// reset, in query order. Unlike the tool output these are not deduplicated;
// callers use them to attribute answers to stored memories.
func (t *RecallTool) Docs() []QueryResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	docs := make([]QueryResult, len(t.docs))
	copy(docs, t.docs)
	return docs
}

// ResetDocs clears the retrieved document buffer.
func (t *RecallTool) ResetDocs() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docs = nil
}
