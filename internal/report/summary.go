package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/billaudit/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)

// RenderSummary writes a styled overview of the batch: counts, per-rule
// alert tallies and the documents that need review.
func RenderSummary(w io.Writer, batch *model.BatchReport, taxonomy model.Taxonomy) error {
	var b strings.Builder

	s := batch.Summary
	b.WriteString(titleStyle.Render("Billing statement audit"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Documents:      "), s.Documents)
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("With alerts:    "), s.WithAlerts)
	if s.Unreadable > 0 {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Unreadable:     "), warningStyle.Render(fmt.Sprint(s.Unreadable)))
	}
	if s.NoText > 0 {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("No text layer:  "), warningStyle.Render(fmt.Sprint(s.NoText)))
	}

	if len(batch.Rules) > 0 {
		b.WriteString("\n")
		for _, t := range batch.Rules {
			count := okStyle.Render(fmt.Sprint(t.Alerts))
			if t.Alerts > 0 {
				count = alertStyle.Render(fmt.Sprint(t.Alerts))
			}
			fmt.Fprintf(&b, "%s %s (%s without %s)\n",
				count,
				t.Rule.Label,
				taxonomy.LabelOf(t.Rule.Trigger),
				taxonomy.LabelOf(t.Rule.Required),
			)
		}
	}

	var flagged []string
	for _, rec := range batch.Records {
		switch {
		case rec.Unreadable():
			flagged = append(flagged, fmt.Sprintf("%s  %s", rec.Source, warningStyle.Render("unreadable: "+rec.Note)))
		case len(rec.Alerts) > 0:
			flagged = append(flagged, fmt.Sprintf("%s  %s", rec.Source, alertStyle.Render(strings.Join(rec.Alerts, ", "))))
		}
	}
	if len(flagged) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(flagged, "\n"))
		b.WriteString("\n")
	}

	if _, err := fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n"))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
