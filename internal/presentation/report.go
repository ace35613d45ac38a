package presentation

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// noMarginStyle is a JSON style that removes document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// ReportMarkdown builds the diagnostics report as markdown: a summary, a
// table of every plugin and one entry per diagnostic. run may be nil.
func ReportMarkdown(descs []*plugin.Descriptor, diags []plugin.Diagnostic, run *plugin.ResolutionRun) string {
	enabled := 0
	for _, d := range descs {
		if d.IsEnabled() {
			enabled++
		}
	}

	var b strings.Builder
	b.WriteString("# Plugin report\n\n")
	if run != nil {
		fmt.Fprintf(&b, "Run `%s` at %s.\n\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "**%d** plugins loaded, **%d** enabled, **%d** disabled.\n\n", len(descs), enabled, len(descs)-enabled)

	if len(descs) > 0 {
		b.WriteString("| Plugin | Version | State | Reason |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, d := range descs {
			version := "-"
			if v := d.Version(); v != nil {
				version = v.String()
			}
			reason := ""
			if r := d.Reason(); r != nil {
				reason = r.Reason.String()
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", escapeCell(d.Name()), version, d.State(), reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Diagnostics\n\n")
	if len(diags) == 0 {
		b.WriteString("No plugins were disabled.\n")
		return b.String()
	}
	for _, d := range diags {
		fmt.Fprintf(&b, "- **%s**: %s\n", d.Plugin, d.Message())
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// RenderMarkdown renders markdown for the terminal. style is a glamour style
// name such as "auto", "dark", "light" or "notty"; empty means "auto".
func RenderMarkdown(markdown, style string, width int) (string, error) {
	if style == "" {
		style = "auto"
	}
	opts := []glamour.TermRendererOption{
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r.Render(markdown)
}
