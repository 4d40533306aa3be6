package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/skinsync/internal/service"
)

// Theme holds the color scheme for the progress transcript.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint)
}

// fetchTranscript prints one block per entity:
//
//	(3/15) Colt
//	  CDN image: https://...
//	  saved → assets/characters/colt.png
type fetchTranscript struct {
	w     io.Writer
	theme Theme
}

func (t *fetchTranscript) ItemStarted(index, total int, name string) {
	fmt.Fprintln(t.w, t.theme.statusStyle().Render(fmt.Sprintf("(%d/%d) %s", index, total, name)))
}

func (t *fetchTranscript) ItemFinished(_, _ int, item service.ItemResult) {
	if item.URL != "" {
		fmt.Fprintf(t.w, "  CDN image: %s\n", t.theme.hintStyle().Render(item.URL))
	}

	switch item.Outcome {
	case service.OutcomeSaved:
		if item.BackupPath != "" {
			fmt.Fprintf(t.w, "  backup → %s\n", item.BackupPath)
		}
		fmt.Fprintf(t.w, "  %s\n", t.theme.completedStyle().Render("saved → "+item.Path))
	case service.OutcomeNotFound:
		fmt.Fprintln(t.w, "  default skin not found")
	case service.OutcomeTransport:
		if item.URL == "" {
			t.failure("API error", item.Err)
		} else {
			t.failure("image download failed", item.Err)
		}
	case service.OutcomeCodec:
		t.failure("image conversion failed", item.Err)
	default:
		t.failure("image save failed", item.Err)
	}
}

func (t *fetchTranscript) failure(what string, err error) {
	fmt.Fprintf(t.w, "  %s\n", t.theme.errorStyle().Render(fmt.Sprintf("%s: %v", what, err)))
}

// rescaleTranscript prints one line per file.
type rescaleTranscript struct {
	w     io.Writer
	theme Theme
}

func (t *rescaleTranscript) ItemStarted(int, int, string) {}

func (t *rescaleTranscript) ItemFinished(_, _ int, item service.ItemResult) {
	if !item.OK() {
		fmt.Fprintf(t.w, "  %s\n", t.theme.errorStyle().Render(
			fmt.Sprintf("ERROR rescaling %s: %v", item.Path, item.Err)))
		return
	}
	fmt.Fprintf(t.w, "  %s: %dx%d → %dx%d\n", item.Name, item.From.X, item.From.Y, item.To.X, item.To.Y)
}

// printSummary prints the final "successes/total" line.
func printSummary(w io.Writer, theme Theme, res *service.Result, verb string) {
	line := fmt.Sprintf("Done: %d/%d %s successfully.", res.Succeeded, res.Total, verb)
	style := theme.completedStyle()
	if res.Succeeded < res.Total {
		style = theme.errorStyle()
	}
	fmt.Fprintf(w, "\n%s\n", style.Render(line))
}
