package cliui

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const summaryPreviewLen = 120

// RenderHits writes ranked search hits for query to w.
func RenderHits(w io.Writer, query string, hits []archive.SearchHit) {
	if len(hits) == 0 {
		Fprint(w, "No results found.\n")
		return
	}

	Fprintf(w, "\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		KeyStyle.Render(fmt.Sprintf("%q", query)),
	)

	for i, hit := range hits {
		title := hit.Title
		if title == "" {
			title = "(untitled)"
		}

		Fprintf(w, "  %s  %s  %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", i+1)),
			scoreStyle.Render(fmt.Sprintf("score: %.4f", hit.Score)),
			titleStyle.Render(title),
		)

		if hit.Summary != "" {
			summary := strings.ReplaceAll(hit.Summary, "\n", " ")
			Fprintf(w, "  %s\n", previewStyle.Render(utils.Truncate(summary, summaryPreviewLen)))
		}

		Fprintf(w, "  %s\n\n", DimStyle.Render(fmt.Sprintf("%s · %s · %s", hit.ID, hit.Source, hit.ContentKey)))
	}
}

// ConversationMarkdown renders archived turns as a markdown document.
func ConversationMarkdown(title string, turns []cas.Turn) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	for _, t := range turns {
		fmt.Fprintf(&b, "## %s", t.Role)
		if t.Timestamp != "" {
			fmt.Fprintf(&b, " (%s)", t.Timestamp)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(t.Content))
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderConversation writes the turns to w, through glamour on a color
// terminal and as raw markdown otherwise.
func RenderConversation(w io.Writer, title string, turns []cas.Turn) error {
	md := ConversationMarkdown(title, turns)
	if !ColorEnabled(w) {
		_, err := io.WriteString(w, md)
		return err
	}

	rendered, err := RenderMarkdown(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// RenderHistory writes one line per archived record version.
func RenderHistory(w io.Writer, recs []*archive.MetadataRecord) {
	for _, rec := range recs {
		Fprintf(w, "  %s  %s  %s  %s\n",
			KeyStyle.Render(rec.ArchiveID),
			DimStyle.Render(rec.ArchivedAt.Format("2006-01-02 15:04:05")),
			titleStyle.Render(rec.Title),
			scoreStyle.Render(fmt.Sprintf("%d messages, %d tokens", rec.MessageCount, rec.TokenCount)),
		)
	}
}
