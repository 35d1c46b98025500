package csvimport

import (
	"fmt"
	"strings"
)

// Variant is one row-assembly strategy. The set of variants is closed:
// Paraphrasing and SentenceScramble.
type Variant interface {
	// SkillType is the label stamped on every row the variant emits.
	SkillType() SkillType

	// Formats is the allow-list checked before assembly.
	Formats() *FormatSet

	// missingCritical lists the critical columns that are empty after
	// sanitization.
	missingCritical(rec Record) []string

	// assemble builds the row or returns nil after recording why not.
	assemble(rec Record, n *Normalizer, d *rowDiagnostics) *NormalizedRow
}

// VariantFor resolves a skill name such as "paraphrasing", "scramble" or a
// full SkillType label.
func VariantFor(name string) (Variant, error) {
	switch formatKey(name) {
	case "paraphrasing", "paraphrase", formatKey(string(SkillParaphrasing)):
		return Paraphrasing{}, nil
	case "scramble", "sentencescramble", formatKey(string(SkillSentenceScramble)):
		return SentenceScramble{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, name)
}

// Normalizer turns an uploaded document into import-ready rows. It holds
// no mutable state and is safe for concurrent use.
type Normalizer struct {
	variant   Variant
	config    Config
	sanitizer Sanitizer
}

// New creates a Normalizer for one variant.
func New(v Variant, cfg Config) *Normalizer {
	if cfg.PlaceholderPolicy == "" {
		cfg.PlaceholderPolicy = PolicyPad
	}
	if cfg.PlaceholderPrefix == "" {
		cfg.PlaceholderPrefix = DefaultConfig().PlaceholderPrefix
	}
	if cfg.ScrambleInstruction == "" {
		cfg.ScrambleInstruction = DefaultConfig().ScrambleInstruction
	}
	return &Normalizer{
		variant:   v,
		config:    cfg,
		sanitizer: NewSanitizer(cfg.MaxFieldLength),
	}
}

// Variant returns the variant this normalizer assembles rows with.
func (n *Normalizer) Variant() Variant { return n.variant }

// Sanitizer returns the field sanitizer in use.
func (n *Normalizer) Sanitizer() Sanitizer { return n.sanitizer }

// Normalize parses doc and returns every valid row plus diagnostics.
//
// Row problems never produce an error; they land in Output.Warnings or
// Output.Errors. The only error is *HeaderError, returned when the header
// lacks required columns. The Output is still populated in that case, with
// one header-level entry in Errors and nothing to insert.
func (n *Normalizer) Normalize(doc, skillTestID string) (*Output, error) {
	out := &Output{
		Insert:   []NormalizedRow{},
		Warnings: []Diagnostic{},
		Errors:   []Diagnostic{},
	}

	lines := splitLines(CleanDocument(doc))
	if len(lines) == 0 {
		herr := &HeaderError{Missing: append([]string(nil), RequiredHeaders...)}
		out.Errors = append(out.Errors, Diagnostic{Row: 1, Message: herr.Error()})
		return out, herr
	}

	header, data := lines[0], lines[1:]
	delim := n.config.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(header.text)
	}

	out.Summary.RowsReceived = len(data)

	cols, missing := indexHeader(ParseLine(header.text, delim))
	if len(missing) > 0 {
		herr := &HeaderError{Missing: missing}
		out.Errors = append(out.Errors, Diagnostic{Row: header.num, Message: herr.Error()})
		return out, herr
	}

	for _, line := range data {
		d := &rowDiagnostics{row: line.num}
		rec := n.sanitizeRecord(cols.record(ParseLine(line.text, delim)))
		if row := n.normalizeRow(rec, skillTestID, d); row != nil {
			out.Insert = append(out.Insert, *row)
		}
		if len(d.warnings) > 0 {
			out.Summary.RowsWithWarnings++
			out.Warnings = append(out.Warnings, d.warnings...)
		}
		if len(d.errors) > 0 {
			out.Summary.RowsWithErrors++
			out.Errors = append(out.Errors, d.errors...)
		}
	}

	out.Summary.RowsValid = len(out.Insert)
	out.OK = len(out.Insert) > 0
	return out, nil
}

func (n *Normalizer) normalizeRow(rec Record, skillTestID string, d *rowDiagnostics) *NormalizedRow {
	if missing := n.variant.missingCritical(rec); len(missing) > 0 {
		d.fail("missing required field(s): %s", strings.Join(missing, ", "))
		return nil
	}

	tag, ok := n.variant.Formats().Match(rec.QuestionFormat)
	if !ok {
		d.fail("unrecognized question format %q", rec.QuestionFormat)
		return nil
	}

	row := n.variant.assemble(rec, n, d)
	if row == nil {
		return nil
	}
	row.SkillType = n.variant.SkillType()
	row.SkillTestID = skillTestID
	row.QuestionFormat = tag
	row.SourceRow = d.row
	return row
}

func (n *Normalizer) sanitizeRecord(rec Record) Record {
	s := n.sanitizer
	return Record{
		QuestionFormat:   s.Field(rec.QuestionFormat),
		OriginalSentence: s.Field(rec.OriginalSentence),
		WordOrSentence:   s.Field(rec.WordOrSentence),
		CorrectAnswer:    s.Field(rec.CorrectAnswer),
		IncorrectAnswers: [3]string{
			s.Field(rec.IncorrectAnswers[0]),
			s.Field(rec.IncorrectAnswers[1]),
			s.Field(rec.IncorrectAnswers[2]),
		},
		Explanation: s.Field(rec.Explanation),
	}
}

// rowDiagnostics collects the outcome messages for a single source row.
type rowDiagnostics struct {
	row      int
	warnings []Diagnostic
	errors   []Diagnostic
}

func (d *rowDiagnostics) warn(format string, args ...any) {
	d.warnings = append(d.warnings, Diagnostic{Row: d.row, Message: fmt.Sprintf(format, args...)})
}

func (d *rowDiagnostics) fail(format string, args ...any) {
	d.errors = append(d.errors, Diagnostic{Row: d.row, Message: fmt.Sprintf(format, args...)})
}

// uniqueFold drops empty values and case-insensitive repeats, keeping the
// first spelling seen.
func uniqueFold(values []string) (kept, dropped []string) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		k := foldKey(v)
		if seen[k] {
			dropped = append(dropped, v)
			continue
		}
		seen[k] = true
		kept = append(kept, v)
	}
	return kept, dropped
}

func containsFold(values []string, v string) bool {
	k := foldKey(v)
	for _, x := range values {
		if foldKey(x) == k {
			return true
		}
	}
	return false
}

func missingFields(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}
