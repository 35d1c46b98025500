// Package report renders normalization and import results for the terminal.
// Colors are downsampled to what the destination supports, so piping the
// output to a file yields plain text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/importer"
	"github.com/englishaidol/aidol/internal/store"
)

// maxCell is the display width budget for free-text table cells.
const maxCell = 40

// Output prints the summary card, the accepted rows and every diagnostic.
func Output(w io.Writer, out *csvimport.Output) error {
	if out == nil {
		return nil
	}
	_, err := lipgloss.Fprintln(w, renderOutput(out))
	return err
}

// ImportResult prints what an import stored, followed by its Output.
func ImportResult(w io.Writer, res *importer.Result) error {
	if res == nil {
		return nil
	}
	var b strings.Builder
	if res.DryRun {
		b.WriteString(hintStyle.Render("dry run: nothing was stored"))
	} else {
		b.WriteString(card.Render(kv(
			"Import", res.ImportID,
			"Inserted", strconv.Itoa(res.Inserted),
			"Enriched", strconv.Itoa(res.Enriched),
			"Archive", orDash(res.ArchiveKey),
		)))
	}
	if len(res.Notes) > 0 {
		b.WriteString("\n")
		b.WriteString(diagnostics("Enrichment", res.Notes, valueStyle))
	}
	if res.Output != nil {
		b.WriteString("\n")
		b.WriteString(renderOutput(res.Output))
	}
	_, err := lipgloss.Fprintln(w, b.String())
	return err
}

// Batches prints one line per stored import.
func Batches(w io.Writer, batches []store.ImportBatch) error {
	if len(batches) == 0 {
		_, err := fmt.Fprintln(w, "No imports found.")
		return err
	}
	t := newTable("ID", "Created", "Skill", "Skill test", "File", "Valid", "Warn", "Err")
	for _, b := range batches {
		t.Row(
			b.ID,
			b.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(b.SkillType),
			b.SkillTestID,
			clip(orDash(b.Filename), 24),
			strconv.Itoa(b.Summary.RowsValid),
			strconv.Itoa(b.Summary.RowsWithWarnings),
			strconv.Itoa(b.Summary.RowsWithErrors),
		)
	}
	_, err := lipgloss.Fprintln(w, t.Render())
	return err
}

// Batch prints a stored import with its diagnostics.
func Batch(w io.Writer, b *store.ImportBatch) error {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Import " + b.ID))
	sb.WriteString("\n")
	sb.WriteString(card.Render(kv(
		"Created", b.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		"Skill", string(b.SkillType),
		"Skill test", b.SkillTestID,
		"File", orDash(b.Filename),
		"Archive", orDash(b.ArchiveKey),
		"Enriched", strconv.Itoa(b.Enriched),
	)))
	sb.WriteString("\n")
	sb.WriteString(summary(b.Summary))
	if len(b.Diagnostics.Warnings) > 0 {
		sb.WriteString("\n")
		sb.WriteString(diagnostics("Warnings", b.Diagnostics.Warnings, warnStyle))
	}
	if len(b.Diagnostics.Errors) > 0 {
		sb.WriteString("\n")
		sb.WriteString(diagnostics("Errors", b.Diagnostics.Errors, errStyle))
	}
	_, err := lipgloss.Fprintln(w, sb.String())
	return err
}

// Questions prints stored questions.
func Questions(w io.Writer, qs []store.Question) error {
	if len(qs) == 0 {
		_, err := fmt.Fprintln(w, "No questions found.")
		return err
	}
	rows := make([]csvimport.NormalizedRow, len(qs))
	for i := range qs {
		rows[i] = qs[i].NormalizedRow
	}
	_, err := lipgloss.Fprintln(w, rowTable(rows))
	return err
}

func renderOutput(out *csvimport.Output) string {
	var b strings.Builder
	status := okStyle.Render("OK")
	if !out.OK {
		status = failStyle.Render("REJECTED")
	}
	b.WriteString(titleStyle.Render("Normalization") + "  " + status)
	b.WriteString("\n")
	b.WriteString(summary(out.Summary))
	if len(out.Insert) > 0 {
		b.WriteString("\n")
		b.WriteString(rowTable(out.Insert))
	}
	if len(out.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(diagnostics("Warnings", out.Warnings, warnStyle))
	}
	if len(out.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(diagnostics("Errors", out.Errors, errStyle))
	}
	return b.String()
}

func summary(s csvimport.Summary) string {
	return card.Render(kv(
		"Received", strconv.Itoa(s.RowsReceived),
		"Valid", strconv.Itoa(s.RowsValid),
		"Warnings", strconv.Itoa(s.RowsWithWarnings),
		"Errors", strconv.Itoa(s.RowsWithErrors),
	))
}

func rowTable(rows []csvimport.NormalizedRow) string {
	t := newTable("Row", "Format", "Content", "Correct", "Incorrect")
	for _, r := range rows {
		t.Row(
			strconv.Itoa(r.SourceRow),
			r.QuestionFormat,
			clip(r.Content, maxCell),
			clip(r.CorrectAnswer, maxCell),
			options(r),
		)
	}
	return t.Render()
}

// options joins the incorrect answers, marking synthetic ones.
func options(r csvimport.NormalizedRow) string {
	synthetic := make(map[int]bool, len(r.PlaceholderIndexes))
	for _, i := range r.PlaceholderIndexes {
		synthetic[i] = true
	}
	parts := make([]string, len(r.IncorrectAnswers))
	for i, a := range r.IncorrectAnswers {
		a = clip(a, maxCell/2)
		if synthetic[i] {
			a = placeholderCell.UnsetPadding().Render(a + "*")
		}
		parts[i] = a
	}
	return strings.Join(parts, " | ")
}

func diagnostics(title string, ds []csvimport.Diagnostic, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(ds))))
	for _, d := range ds {
		b.WriteString("\n")
		b.WriteString(style.Render(fmt.Sprintf("  row %d: %s", d.Row, d.Message)))
	}
	return b.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		})
}

// kv renders label/value pairs, one per line.
func kv(pairs ...string) string {
	lines := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, labelStyle.Render(pairs[i])+valueStyle.Render(pairs[i+1]))
	}
	return strings.Join(lines, "\n")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
