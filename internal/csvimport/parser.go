package csvimport

import "strings"

// Column names of the import template. Matching is exact and order-independent.
const (
	ColQuestionFormat   = "QuestionFormat"
	ColOriginalSentence = "original_sentence"
	ColWordOrSentence   = "WordOrSentence"
	ColCorrectAnswer    = "CorrectAnswer"
	ColIncorrectAnswer1 = "IncorrectAnswer1"
	ColIncorrectAnswer2 = "IncorrectAnswer2"
	ColIncorrectAnswer3 = "IncorrectAnswer3"
	ColExplanation      = "Explanation"
)

// RequiredHeaders is the fixed header contract every upload must satisfy.
var RequiredHeaders = []string{
	ColQuestionFormat,
	ColOriginalSentence,
	ColWordOrSentence,
	ColCorrectAnswer,
	ColIncorrectAnswer1,
	ColIncorrectAnswer2,
	ColIncorrectAnswer3,
	ColExplanation,
}

// Record is one data row mapped onto the template columns.
// Values are raw: not yet sanitized.
type Record struct {
	QuestionFormat   string
	OriginalSentence string
	WordOrSentence   string
	CorrectAnswer    string
	IncorrectAnswers [3]string
	Explanation      string
}

// columnIndex maps template columns to field positions in a parsed row.
type columnIndex map[string]int

// indexHeader builds the column index for a header row and returns the
// required headers that are absent, in template order.
func indexHeader(fields []string) (columnIndex, []string) {
	idx := make(columnIndex, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := idx[h]; !ok {
			missing = append(missing, h)
		}
	}
	return idx, missing
}

// record maps parsed fields to a Record. Short rows yield empty values.
func (c columnIndex) record(fields []string) Record {
	get := func(col string) string {
		i, ok := c[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}
	return Record{
		QuestionFormat:   get(ColQuestionFormat),
		OriginalSentence: get(ColOriginalSentence),
		WordOrSentence:   get(ColWordOrSentence),
		CorrectAnswer:    get(ColCorrectAnswer),
		IncorrectAnswers: [3]string{
			get(ColIncorrectAnswer1),
			get(ColIncorrectAnswer2),
			get(ColIncorrectAnswer3),
		},
		Explanation: get(ColExplanation),
	}
}

// ParseLine splits one line into fields on delim. Double quotes delimit
// fields, "" inside quotes is a literal quote, and delimiters inside quotes
// are literal. An unterminated quote consumes the rest of the line.
func ParseLine(line string, delim rune) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '"':
			if i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuote = false
			}
		case inQuote:
			cur.WriteRune(r)
		case r == '"':
			inQuote = true
		case r == delim:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, cur.String())
}

// DetectDelimiter picks ',' or ';' for a header line by counting each
// outside double quotes. Semicolon wins only when it strictly outnumbers
// commas, so an ambiguous line stays comma-delimited.
func DetectDelimiter(line string) rune {
	var commas, semis int
	inQuote := false
	for _, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				commas++
			}
		case ';':
			if !inQuote {
				semis++
			}
		}
	}
	if semis > commas {
		return ';'
	}
	return ','
}

// sourceLine is a non-blank line with its 1-based position in the file.
type sourceLine struct {
	num  int
	text string
}

// splitLines breaks a document on any newline convention and drops blank
// lines, keeping original line numbers.
func splitLines(doc string) []sourceLine {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	doc = strings.ReplaceAll(doc, "\r", "\n")
	var out []sourceLine
	for i, l := range strings.Split(doc, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, sourceLine{num: i + 1, text: l})
	}
	return out
}
