package mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/ingest"
	"github.com/killallgit/waskita-api/internal/services/normalizer"
	"github.com/killallgit/waskita-api/internal/services/pending"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// canonicalColumns are listed first in a schema when present
var canonicalColumns = []string{
	normalizer.FieldContent,
	normalizer.FieldUsername,
	normalizer.FieldURL,
	normalizer.FieldCreatedAt,
	normalizer.FieldPlatform,
}

// Negotiator stages normalized scrape results and turns a chosen column mapping into records
type Negotiator struct {
	store    pending.Store
	writer   RecordWriter
	datasets DatasetReader
	ttl      time.Duration
	now      func() time.Time
	log      logger.Logger
}

// Option configures a Negotiator
type Option func(*Negotiator)

// WithTTL sets how long staged results stay available
func WithTTL(ttl time.Duration) Option {
	return func(n *Negotiator) {
		if ttl > 0 {
			n.ttl = ttl
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(n *Negotiator) {
		if log != nil {
			n.log = log
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(n *Negotiator) { n.now = now }
}

// NewNegotiator creates a negotiator. datasets may be nil, in which case TotalRecords is left zero.
func NewNegotiator(store pending.Store, writer RecordWriter, datasets DatasetReader, opts ...Option) *Negotiator {
	n := &Negotiator{
		store:    store,
		writer:   writer,
		datasets: datasets,
		ttl:      pending.DefaultTTL,
		now:      time.Now,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With(logger.String("service", "mapping"))
	return n
}

// Stage stores candidates under a new single-use token
func (n *Negotiator) Stage(ctx context.Context, candidates []normalizer.Candidate, sc StageContext) (string, error) {
	if len(candidates) == 0 {
		return "", apperrors.NoDataError(sc.Platform, sc.Keyword)
	}

	now := n.now().UTC()
	p := payload{
		Context:    sc,
		Rows:       make([]map[string]any, 0, len(candidates)),
		Candidates: rankCandidates(candidates),
		StagedAt:   now,
		ExpiresAt:  now.Add(n.ttl),
	}
	for _, c := range candidates {
		p.Rows = append(p.Rows, normalizer.Flatten(c))
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding staged results")
	}

	token := uuid.NewString()
	if err := n.store.Put(ctx, token, data, n.ttl); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "staging results")
	}
	n.updateGauge(ctx)

	n.log.Info("Staged scrape results",
		logger.String("token", token),
		logger.Int("items", len(p.Rows)),
		logger.String("platform", sc.Platform),
		logger.Uint("job_id", sc.JobID))
	return token, nil
}

// GetSchema describes the staged result set without consuming it
func (n *Negotiator) GetSchema(ctx context.Context, token string) (*Schema, error) {
	p, err := n.load(ctx, token)
	if err != nil {
		return nil, err
	}

	samples := p.Rows
	if len(samples) > SampleRowCount {
		samples = samples[:SampleRowCount]
	}
	return &Schema{
		Token:      token,
		Columns:    columnsOf(p.Rows, SchemaScanRows),
		SampleRows: samples,
		TotalItems: len(p.Rows),
		Candidates: p.Candidates,
		Context:    p.Context,
		ExpiresAt:  p.ExpiresAt,
	}, nil
}

// Commit applies mapping to the staged rows and writes them. The token is consumed
// before writing, so a second submit of the same token gets a stale mapping error.
// A validation failure leaves the token usable; a write failure restores it.
func (n *Negotiator) Commit(ctx context.Context, token string, m Mapping) (*CommitResult, error) {
	m.ContentColumn = strings.TrimSpace(m.ContentColumn)
	m.UsernameColumn = strings.TrimSpace(m.UsernameColumn)
	m.URLColumn = strings.TrimSpace(m.URLColumn)
	if m.ContentColumn == "" {
		return nil, apperrors.ValidationError("content_column", "is required")
	}

	p, err := n.load(ctx, token)
	if err != nil {
		return nil, err
	}
	for field, col := range map[string]string{
		"content_column":  m.ContentColumn,
		"username_column": m.UsernameColumn,
		"url_column":      m.URLColumn,
	} {
		if col != "" && !hasColumn(p.Rows, col, SchemaScanRows) {
			return nil, apperrors.ValidationError(field, fmt.Sprintf("column %q is not in the staged schema", col))
		}
	}

	raw, err := n.store.Take(ctx, token)
	if err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			return nil, apperrors.StaleMappingError(token)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "consuming staged results")
	}
	n.updateGauge(ctx)

	inputs := buildInputs(p, m)
	res, err := n.writer.Write(ctx, inputs, ingest.WriteTarget{
		DatasetID: p.Context.DatasetID,
		OwnerID:   p.Context.OwnerID,
		Source:    models.SourceScraper,
	})
	if err != nil {
		n.restore(token, raw, p.ExpiresAt)
		return nil, err
	}

	result := &CommitResult{
		Added:     res.Written,
		Skipped:   res.Skipped,
		Failed:    res.Failed,
		Errors:    res.Errors,
		DatasetID: p.Context.DatasetID,
		Context:   p.Context,
	}
	if n.datasets != nil && p.Context.DatasetID != 0 {
		if ds, err := n.datasets.GetDataset(ctx, p.Context.DatasetID); err == nil {
			result.TotalRecords = ds.TotalRecords
		} else {
			n.log.Warn("Failed to read dataset totals", logger.Uint("dataset_id", p.Context.DatasetID), logger.Error(err))
		}
	}

	n.log.Info("Committed column mapping",
		logger.String("token", token),
		logger.String("content_column", m.ContentColumn),
		logger.Int("written", result.Added),
		logger.Int("skipped", result.Skipped),
		logger.Int("failed", result.Failed))
	return result, nil
}

// Abandon discards a staged result set
func (n *Negotiator) Abandon(ctx context.Context, token string) error {
	if err := n.store.Delete(ctx, token); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "discarding staged results")
	}
	n.updateGauge(ctx)
	return nil
}

func (n *Negotiator) load(ctx context.Context, token string) (*payload, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.ValidationError("token", "is required")
	}
	data, err := n.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			return nil, apperrors.StaleMappingError(token)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "reading staged results")
	}
	var p payload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decoding staged results")
	}
	return &p, nil
}

// restore puts a consumed payload back after a failed write
func (n *Negotiator) restore(token string, data []byte, expiresAt time.Time) {
	ttl := expiresAt.Sub(n.now())
	if ttl < time.Minute {
		ttl = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.store.Put(ctx, token, data, ttl); err != nil {
		n.log.Error("Failed to restore staged results", logger.String("token", token), logger.Error(err))
		return
	}
	n.updateGauge(ctx)
}

func (n *Negotiator) updateGauge(ctx context.Context) {
	if count, err := n.store.Len(ctx); err == nil {
		metrics.PendingStaged.Set(float64(count))
	}
}

func buildInputs(p *payload, m Mapping) []ingest.RecordInput {
	inputs := make([]ingest.RecordInput, 0, len(p.Rows))
	for i, row := range p.Rows {
		in := ingest.RecordInput{
			Row:        i + 1,
			Content:    normalizer.Value(row, m.ContentColumn),
			Username:   normalizer.Value(row, pick(m.UsernameColumn, normalizer.FieldUsername)),
			URL:        normalizer.Value(row, pick(m.URLColumn, normalizer.FieldURL)),
			Platform:   p.Context.Platform,
			Keyword:    p.Context.Keyword,
			CreatedAt:  normalizer.Value(row, normalizer.FieldCreatedAt),
			Engagement: ingest.EngagementFromRow(row),
		}
		if p.Context.RunID != "" {
			in.Metadata = map[string]any{"run_id": p.Context.RunID}
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func pick(col, fallback string) string {
	if col != "" {
		return col
	}
	return fallback
}

// columnsOf returns the union of keys in the first limit rows: canonical fields first,
// then the rest in order of first appearance with each row's new keys sorted
func columnsOf(rows []map[string]any, limit int) []string {
	if len(rows) > limit {
		rows = rows[:limit]
	}
	seen := make(map[string]bool)
	var cols []string
	for _, c := range canonicalColumns {
		for _, row := range rows {
			if _, ok := row[c]; ok {
				cols = append(cols, c)
				seen[c] = true
				break
			}
		}
	}
	for _, row := range rows {
		var fresh []string
		for k := range row {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		cols = append(cols, fresh...)
	}
	return cols
}

// hasColumn reports whether col, or a dotted path into it, appears in the rows the
// schema was built from
func hasColumn(rows []map[string]any, col string, limit int) bool {
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		if _, ok := row[col]; ok {
			return true
		}
		if normalizer.Value(row, col) != "" {
			return true
		}
	}
	return false
}

// rankCandidates orders the raw fields each core value was found in by how many
// items used them, after the canonical column
func rankCandidates(cands []normalizer.Candidate) Candidates {
	tally := func(get func(normalizer.Alternatives) []normalizer.FieldCandidate, canonical string) []string {
		counts := make(map[string]int)
		var order []string
		for _, c := range cands {
			for _, fc := range get(c.Alternatives) {
				if counts[fc.Field] == 0 {
					order = append(order, fc.Field)
				}
				counts[fc.Field]++
			}
		}
		sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

		out := []string{canonical}
		for _, f := range order {
			if f != canonical {
				out = append(out, f)
			}
		}
		return out
	}
	return Candidates{
		Content:  tally(func(a normalizer.Alternatives) []normalizer.FieldCandidate { return a.Content }, normalizer.FieldContent),
		Username: tally(func(a normalizer.Alternatives) []normalizer.FieldCandidate { return a.Username }, normalizer.FieldUsername),
		URL:      tally(func(a normalizer.Alternatives) []normalizer.FieldCandidate { return a.URL }, normalizer.FieldURL),
		Date:     tally(func(a normalizer.Alternatives) []normalizer.FieldCandidate { return a.CreatedAt }, normalizer.FieldCreatedAt),
	}
}
