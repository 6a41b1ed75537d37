package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ppb-analytics/ppbtree/internal/analysis"
)

// Pair is one entity-mandate scoring unit: the entity's flattened
// narrative against one mandate document's paragraphs.
type Pair struct {
	Entity     string             `json:"entity"`
	EntityLong string             `json:"entity_long,omitempty"`
	PPBText    string             `json:"ppb_text"`
	Symbol     string             `json:"symbol"`
	Paragraphs []MandateParagraph `json:"paragraphs"`
}

// Result maps mandate symbol -> entity -> scored paragraphs.
type Result map[string]map[string][]RelevantParagraph

// EntityMandates maps each citing entity to the mandate symbols it
// cites, deduplicated in first-seen order.
func EntityMandates(records []analysis.MandateRecord) map[string][]string {
	out := make(map[string][]string)
	for _, rec := range records {
		for _, entity := range rec.Entities {
			if entity == "" {
				continue
			}
			if !contains(out[entity], rec.FullDocumentSymbol) {
				out[entity] = append(out[entity], rec.FullDocumentSymbol)
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Runner fans scoring calls out over a bounded number of concurrent
// requests, retrying transient API failures.
type Runner struct {
	client        *Client
	stats         *Stats
	logger        *slog.Logger
	maxConcurrent int
}

func NewRunner(client *Client, stats *Stats, logger *slog.Logger, maxConcurrent int) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Runner{
		client:        client,
		stats:         stats,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// Run scores every pair. A pair that keeps failing is dropped from the
// result; its error is joined into the returned error while the other
// pairs' results stand.
func (r *Runner) Run(ctx context.Context, pairs []Pair) (Result, error) {
	result := make(Result)
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)
	sem := make(chan struct{}, r.maxConcurrent)

	for _, pair := range pairs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return result, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(p Pair) {
			defer wg.Done()
			defer func() { <-sem }()

			hits, err := r.scoreWithRetry(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("score %s/%s: %w", p.Entity, p.Symbol, err))
				return
			}
			if result[p.Symbol] == nil {
				result[p.Symbol] = make(map[string][]RelevantParagraph)
			}
			result[p.Symbol][p.Entity] = hits
		}(pair)
	}

	wg.Wait()
	return result, errors.Join(errs...)
}

func (r *Runner) scoreWithRetry(ctx context.Context, p Pair) ([]RelevantParagraph, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("retrying relevance call",
				"entity", p.Entity, "symbol", p.Symbol,
				"attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}

		start := time.Now()
		hits, err := r.client.Score(ctx, p.Entity, p.EntityLong, p.PPBText, p.Symbol, p.Paragraphs)
		if r.stats != nil {
			r.stats.Record(time.Since(start).Milliseconds())
		}
		if err == nil {
			return hits, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
