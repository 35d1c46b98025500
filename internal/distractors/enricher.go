package distractors

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/englishaidol/aidol/internal/csvimport"
)

// Enricher replaces synthetic placeholders with generated distractors.
// Input rows are never modified; Enrich returns copies.
type Enricher struct {
	gen       Generator
	sanitizer csvimport.Sanitizer
	config    Config
	logger    *zap.Logger
}

// NewEnricher creates an Enricher. Proposals are cleaned with sanitizer
// before validation so they obey the same rules as file content.
func NewEnricher(gen Generator, sanitizer csvimport.Sanitizer, cfg Config, logger *zap.Logger) *Enricher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{gen: gen, sanitizer: sanitizer, config: cfg, logger: logger}
}

// rowOutcome is what one worker produced for one row.
type rowOutcome struct {
	row      csvimport.NormalizedRow
	notes    []csvimport.Diagnostic
	replaced int
	kept     int
	failed   bool
}

// Enrich processes every row that carries placeholders. A failed call or
// a rejected proposal keeps the placeholder; only context cancellation
// makes Enrich return an error.
func (e *Enricher) Enrich(ctx context.Context, rows []csvimport.NormalizedRow) (*Result, error) {
	outcomes := make([]rowOutcome, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	for i := range rows {
		if !rows[i].HasPlaceholders() {
			outcomes[i] = rowOutcome{row: copyRow(rows[i])}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = e.enrichRow(gctx, rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich rows: %w", err)
	}

	res := &Result{Rows: make([]csvimport.NormalizedRow, len(rows))}
	for i, o := range outcomes {
		res.Rows[i] = o.row
		res.Notes = append(res.Notes, o.notes...)
		res.Replaced += o.replaced
		res.Kept += o.kept
		if o.failed {
			res.Failed++
		}
	}
	return res, nil
}

func (e *Enricher) enrichRow(ctx context.Context, src csvimport.NormalizedRow) rowOutcome {
	row := copyRow(src)
	in := InputFor(src)

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	proposals, err := e.gen.Propose(ctx, in)
	if err != nil {
		e.logger.Warn("distractor enrichment failed",
			zap.Int("row", src.SourceRow),
			zap.Error(err))
		return rowOutcome{row: row, kept: len(src.PlaceholderIndexes), failed: true}
	}

	taken := append([]string{row.CorrectAnswer}, in.Existing...)
	candidates := e.accept(proposals, taken, src.SourceRow)

	var (
		out       rowOutcome
		remaining []int
	)
	for _, idx := range src.PlaceholderIndexes {
		if len(candidates) == 0 {
			remaining = append(remaining, idx)
			out.kept++
			continue
		}
		old := row.IncorrectAnswers[idx]
		row.IncorrectAnswers[idx] = candidates[0]
		candidates = candidates[1:]
		out.replaced++
		out.notes = append(out.notes, csvimport.Diagnostic{
			Row:     src.SourceRow,
			Message: fmt.Sprintf("replaced synthetic distractor %q with %q", old, row.IncorrectAnswers[idx]),
		})
	}
	row.PlaceholderIndexes = remaining
	out.row = row
	return out
}

// accept sanitizes and validates proposals in order, returning the usable
// ones. Each accepted value joins taken so later proposals stay distinct.
func (e *Enricher) accept(proposals, taken []string, sourceRow int) []string {
	var ok []string
	for _, p := range proposals {
		clean := e.sanitizer.Field(p)
		if verr := e.validate(clean, taken); verr != nil {
			e.logger.Debug("distractor proposal rejected",
				zap.Int("row", sourceRow),
				zap.String("validator", verr.Validator),
				zap.String("reason", verr.Message))
			continue
		}
		ok = append(ok, clean)
		taken = append(taken, clean)
	}
	return ok
}

func (e *Enricher) validate(p string, taken []string) *ValidationError {
	for _, v := range e.config.Validators {
		if verr := v.Validate(p, taken, e.config); verr != nil {
			return verr
		}
	}
	return nil
}

// copyRow gives each worker its own slices.
func copyRow(r csvimport.NormalizedRow) csvimport.NormalizedRow {
	r.IncorrectAnswers = slices.Clone(r.IncorrectAnswers)
	r.PlaceholderIndexes = slices.Clone(r.PlaceholderIndexes)
	return r
}
