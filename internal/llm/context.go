package llm

import "context"

type labelsKey struct{}

// Labels describe why a request was made. They travel with the context so
// the logging decorator can attribute each stored event.
type Labels struct {
	Purpose   string
	SourceRow int // physical CSV row that triggered the call, 0 if none
}

func labelsFrom(ctx context.Context) Labels {
	l, _ := ctx.Value(labelsKey{}).(Labels)
	return l
}

// WithPurpose tags ctx with the reason for the call, e.g. "distractors".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	l := labelsFrom(ctx)
	l.Purpose = purpose
	return context.WithValue(ctx, labelsKey{}, l)
}

// WithSourceRow tags ctx with the CSV row being enriched.
func WithSourceRow(ctx context.Context, row int) context.Context {
	l := labelsFrom(ctx)
	l.SourceRow = row
	return context.WithValue(ctx, labelsKey{}, l)
}

// PurposeFrom returns the purpose set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p := labelsFrom(ctx).Purpose; p != "" {
		return p
	}
	return "unknown"
}

// SourceRowFrom returns the row set by WithSourceRow.
func SourceRowFrom(ctx context.Context) (int, bool) {
	r := labelsFrom(ctx).SourceRow
	return r, r > 0
}
