package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/englishaidol/aidol/internal/llm"
	"github.com/englishaidol/aidol/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// LLMEvents prints one line per recorded LLM call.
func LLMEvents(w io.Writer, events []store.LLMRequestEvent) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No LLM events found.")
		return err
	}
	t := newTable("ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
	for _, e := range events {
		ok := okStyle.Render("✓")
		if !e.Success {
			ok = failStyle.Render("✗")
		}
		t.Row(
			strconv.Itoa(e.ID),
			e.Timestamp.Local().Format(timeLayout),
			e.Purpose,
			clip(e.Model, 28),
			strconv.Itoa(e.InputTokens),
			strconv.Itoa(e.OutputTokens),
			strconv.FormatInt(e.LatencyMs, 10),
			ok,
		)
	}
	_, err := lipgloss.Fprintln(w, t.Render())
	return err
}

// LLMEvent prints one call with its captured request and response.
func LLMEvent(w io.Writer, e *store.LLMRequestEvent) error {
	pairs := []string{
		"ID", strconv.Itoa(e.ID),
		"Time", e.Timestamp.Local().Format(timeLayout),
		"Provider", e.Provider,
		"Model", e.Model,
		"Purpose", e.Purpose,
		"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens),
		"Latency", fmt.Sprintf("%dms", e.LatencyMs),
		"Success", strconv.FormatBool(e.Success),
	}
	if e.ErrorMessage != "" {
		pairs = append(pairs, "Error", errStyle.Render(e.ErrorMessage))
	}

	var b strings.Builder
	b.WriteString(card.Render(kv(pairs...)))
	for _, sec := range []struct{ title, body string }{
		{"Request", e.RequestBody},
		{"Response", e.ResponseBody},
	} {
		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render(sec.title))
		b.WriteString("\n")
		if sec.body == "" {
			b.WriteString(hintStyle.Render("(not captured)"))
		} else {
			b.WriteString(sec.body)
		}
	}
	_, err := lipgloss.Fprintln(w, b.String())
	return err
}

// LLMStats prints token usage per purpose and an estimated cost per model.
// Models missing from the price table are listed but left out of the total.
func LLMStats(w io.Writer, byPurpose []store.PurposeUsage, byModel []store.ModelUsage) error {
	if len(byPurpose) == 0 {
		_, err := fmt.Fprintln(w, "No LLM usage recorded yet.")
		return err
	}

	usage := newTable("Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	var calls, in, out int
	for _, u := range byPurpose {
		usage.Row(
			u.Purpose,
			strconv.Itoa(u.Calls),
			strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens),
			strconv.Itoa(u.InputTokens+u.OutputTokens),
			strconv.FormatInt(u.AvgLatencyMs, 10),
		)
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	usage.Row("TOTAL", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(out), strconv.Itoa(in+out), "")

	var b strings.Builder
	b.WriteString(titleStyle.Render("Usage by Purpose"))
	b.WriteString("\n")
	b.WriteString(usage.Render())

	if len(byModel) > 0 {
		costs := newTable("Model", "Calls", "Input", "Output", "Cost")
		var total float64
		var unknown []string
		for _, m := range byModel {
			price := "?"
			if c := llm.LookupCost(m.Model); c != nil {
				usd := c.Cost(m.InputTokens, m.OutputTokens)
				total += usd
				price = FormatCost(usd)
			} else {
				unknown = append(unknown, m.Model)
			}
			costs.Row(clip(m.Model, 32), strconv.Itoa(m.Calls), strconv.Itoa(m.InputTokens), strconv.Itoa(m.OutputTokens), price)
		}
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		costs.Row(label, "", "", "", FormatCost(total))

		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render("Estimated Cost (USD)"))
		b.WriteString("\n")
		b.WriteString(costs.Render())
		if len(unknown) > 0 {
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("Pricing unavailable for: " + strings.Join(unknown, ", ")))
		}
	}
	_, err := lipgloss.Fprintln(w, b.String())
	return err
}

// FormatCost shows sub-cent amounts with four decimals.
func FormatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
