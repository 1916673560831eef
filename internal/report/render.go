package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"nzbcheck/models"
)

type styles struct {
	header  lipgloss.Style
	found   lipgloss.Style
	missing lipgloss.Style
	errors  lipgloss.Style
	id      lipgloss.Style
}

func newStyles() styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true),
		found:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		missing: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		errors:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		id:      lipgloss.NewStyle().Faint(true),
	}
}

// Render formats the final summary block. Pure string rendering so it can be
// tested without a terminal.
func Render(sum *models.Summary, showMissing bool) string {
	s := newStyles()

	lines := []string{
		s.header.Render("--- Check Complete ---"),
		fmt.Sprintf("Total Articles: %d", sum.Total),
		"  " + s.found.Render(fmt.Sprintf("Found: %d", sum.Found)),
		"  " + s.missing.Render(fmt.Sprintf("Missing: %d", sum.Missing)),
	}
	if sum.Errors > 0 {
		lines = append(lines, "  "+s.errors.Render(fmt.Sprintf("Errors (Timeouts/Connection Failed): %d", sum.Errors)))
	}
	lines = append(lines, fmt.Sprintf("Completion Rate: %.2f%%", sum.CompletionRate()))

	if showMissing && len(sum.MissingIDs) > 0 {
		lines = append(lines, "", s.header.Render("--- Missing Article IDs ---"))
		for _, id := range sum.MissingIDs {
			lines = append(lines, s.id.Render(id))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
