package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.translate = fn }
}

// WithVersion adds the program version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.version = version }
}

// NewMarkdownFormatter creates a formatter with untranslated labels.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Render Summary"))
	fmt.Fprintf(&b, "- %s: `%s`\n", t("Run ID"), s.RunID)
	fmt.Fprintf(&b, "- %s: %s\n\n", t("Generated At"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	if s.Thread.LeafID != "" {
		fmt.Fprintf(&b, "## %s\n\n", t("Thread"))
		row(&b, t("Leaf Post"), s.Thread.LeafID)
		row(&b, t("Posts"), fmt.Sprint(s.Thread.PostCount))
		previews := fmt.Sprintf("%d / %d", s.Thread.PreviewsDownloaded, s.Thread.PreviewsRequested)
		if s.Thread.PreviewsFailed > 0 {
			previews += fmt.Sprintf(" (%d %s)", s.Thread.PreviewsFailed, t("failed"))
		}
		row(&b, t("Previews"), previews)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	row(&b, t("Preset"), orDash(s.Settings.Preset))
	if s.Settings.ViewportWidth > 0 {
		row(&b, t("Viewport"), fmt.Sprintf("%dx%d", s.Settings.ViewportWidth, s.Settings.ViewportHeight))
	}
	row(&b, t("Color Scheme"), orDash(s.Settings.ColorScheme))
	row(&b, t("Split"), f.policy(s.Settings))
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Render"))
	row(&b, t("Image Size"), fmt.Sprintf("%dx%d", s.Render.Width, s.Render.Height))
	row(&b, t("Scale"), fmt.Sprintf("%.2f", s.Render.Scale))
	row(&b, t("Items"), fmt.Sprint(s.Render.ItemCount))
	row(&b, t("Markup"), formatBytes(int64(s.Render.MarkupBytes)))
	row(&b, t("Duration"), fmt.Sprintf("%d ms", s.Render.DurationMs))
	b.WriteString("\n")

	if len(s.Outputs) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Outputs"))
		fmt.Fprintf(&b, "| # | %s | %s |\n|---|---|---|\n", t("File"), t("Size"))
		for i, o := range s.Outputs {
			fmt.Fprintf(&b, "| %d | %s | %dx%d |\n", i+1, orDash(o.Path), o.Width, o.Height)
		}
		b.WriteString("\n")
	}

	if f.version != "" {
		fmt.Fprintf(&b, "---\n%s %s\n", t("Generated by threadshot"), f.version)
	}
	return b.String()
}

func (f *MarkdownFormatter) policy(s Settings) string {
	switch {
	case s.ItemsPerChunk > 0:
		return fmt.Sprintf("%d %s", s.ItemsPerChunk, f.translate("items per image"))
	case s.MaxHeight > 0:
		return fmt.Sprintf("%s %d px", f.translate("max height"), s.MaxHeight)
	default:
		return f.translate("none")
	}
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "- **%s**: %s\n", label, value)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
