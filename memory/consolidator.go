package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/recollect/ai"
	"github.com/hrygo/recollect/metrics"
	"github.com/hrygo/recollect/store"
)

// Consolidator ingests new summaries. A summary whose embedding lands
// within the merge distance of existing records is folded into them by the
// LLM; otherwise it is stored as-is.
type Consolidator struct {
	repo *Repository
	llm  ai.LLMService
}

// NewConsolidator creates a Consolidator.
func NewConsolidator(repo *Repository, llm ai.LLMService) *Consolidator {
	return &Consolidator{repo: repo, llm: llm}
}

// IngestResult reports what ingestion stored.
type IngestResult struct {
	ID string `json:"id"`

	// Content is the stored text, which differs from the input when a
	// merge happened.
	Content string `json:"content"`

	// MergedCount is the number of prior records absorbed, zero for a
	// plain insert.
	MergedCount int `json:"merged_count,omitempty"`
}

// Ingest stores one new summary, consolidating it with near-duplicate
// records when any exist. Retirement of absorbed records is best effort: a
// failure there leaves duplicates behind but never fails the ingest.
func (c *Consolidator) Ingest(ctx context.Context, tenant, content string, turn *int, typ *string) (*IngestResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(ErrValidation, "summary must not be empty")
	}

	vector, err := c.repo.embedder.Embed(ctx, content)
	if err != nil {
		return nil, errors.Wrap(ErrEmbedding, err.Error())
	}

	hits, err := c.repo.SimilarHits(ctx, tenant, vector, c.repo.cfg.MergeDistance, c.repo.cfg.MergeTopK)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		record, err := c.repo.Add(ctx, tenant, &AddRequest{Summary: content, Turn: turn, Type: typ})
		if err != nil {
			return nil, err
		}
		metrics.IngestTotal.WithLabelValues(tenant, "inserted").Inc()
		return &IngestResult{ID: record.UUID, Content: content}, nil
	}

	neighbors := make([]*store.Summary, 0, len(hits))
	for _, hit := range hits {
		neighbors = append(neighbors, hit.Summary)
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if !neighbors[i].CreatedAt.Equal(neighbors[j].CreatedAt) {
			return neighbors[i].CreatedAt.Before(neighbors[j].CreatedAt)
		}
		return neighbors[i].ID < neighbors[j].ID
	})

	merged, err := c.merge(ctx, neighbors, content, turn)
	if err != nil {
		return nil, err
	}

	provenance := make([]store.MergedSummary, 0, len(neighbors)+1)
	for _, n := range neighbors {
		provenance = append(provenance, n.Merged...)
		provenance = append(provenance, store.MergedSummary{Summary: n.Summary, Turn: n.Turn})
	}
	provenance = append(provenance, store.MergedSummary{Summary: content, Turn: turn})

	record, err := c.repo.Add(ctx, tenant, &AddRequest{
		Summary: merged,
		Turn:    turn,
		Type:    typ,
		Merged:  provenance,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		ids = append(ids, n.ID)
	}
	if err := c.repo.store.DeleteSummaries(ctx, tenant, ids); err != nil {
		metrics.RetireFailures.Inc()
		slog.Error("failed to retire absorbed summaries",
			"tenant", tenant,
			"merged_into", record.UUID,
			"count", len(ids),
			"error", err,
		)
	}

	metrics.IngestTotal.WithLabelValues(tenant, "merged").Inc()
	return &IngestResult{ID: record.UUID, Content: merged, MergedCount: len(neighbors)}, nil
}

// Summarize compresses a dialogue fragment into one summary text. It does
// not store anything; callers pass the result to Ingest.
func (c *Consolidator) Summarize(ctx context.Context, dialogue string) (string, error) {
	if strings.TrimSpace(dialogue) == "" {
		return "", errors.Wrap(ErrValidation, "dialogue must not be empty")
	}
	out, err := c.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(ai.SummarizePrompt),
		ai.UserMessage(dialogue),
	})
	if err != nil {
		return "", errors.Wrap(ErrGeneration, err.Error())
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.Wrap(ErrFormat, "empty summary")
	}
	return out, nil
}

// IngestDialogue summarizes a dialogue fragment and stores the result
// through the regular ingest path.
func (c *Consolidator) IngestDialogue(ctx context.Context, tenant, dialogue string, turn *int, typ *string) (*IngestResult, error) {
	summary, err := c.Summarize(ctx, dialogue)
	if err != nil {
		return nil, err
	}
	return c.Ingest(ctx, tenant, summary, turn, typ)
}

// merge asks the model to consolidate the neighbors with the new content.
// Input is one JSON object per line, oldest first, the new summary last, so
// the prompt's recency rule resolves conflicts in favor of newer facts.
func (c *Consolidator) merge(ctx context.Context, neighbors []*store.Summary, content string, turn *int) (string, error) {
	var sb strings.Builder
	for _, n := range neighbors {
		line, err := json.Marshal(store.MergedSummary{Summary: n.Summary, Turn: n.Turn})
		if err != nil {
			return "", errors.Wrap(err, "failed to encode summary")
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	line, err := json.Marshal(store.MergedSummary{Summary: content, Turn: turn})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode summary")
	}
	sb.Write(line)

	out, err := c.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(ai.MergePrompt),
		ai.UserMessage(sb.String()),
	})
	if err != nil {
		return "", errors.Wrap(ErrGeneration, err.Error())
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.Wrap(ErrFormat, "empty merge result")
	}
	return out, nil
}
