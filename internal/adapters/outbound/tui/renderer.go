package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/adshift/adshift/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	outcomeColors = map[domain.Outcome]lipgloss.Color{
		domain.OutcomeSuccess: success,
		domain.OutcomePartial: warning,
		domain.OutcomeFailure: danger,
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	fieldStyle    = lipgloss.NewStyle().Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

var pipeline = []domain.Stage{
	domain.StageFetching,
	domain.StageMapping,
	domain.StageValidating,
	domain.StageSubmitting,
}

// RenderMigration formats a single migration report for terminal output.
func RenderMigration(r *domain.MigrationReport) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("adshift")
	route := dimStyle.Render(fmt.Sprintf("%s → %s  ·  campaign %s", r.SourcePlatform, r.TargetPlatform, r.SourceCampaignID))
	outcome := outcomeLabel(r.Outcome)
	if r.DryRun {
		outcome += "  " + dimStyle.Render("(dry run)")
	}
	b.WriteString(boxStyle.Render(title + "\n" + route + "\n\n" + outcome))
	b.WriteString("\n\n")

	// ── Stages ──
	for _, stage := range pipeline {
		renderStage(&b, r, stage)
	}

	if r.TargetID != nil {
		fmt.Fprintf(&b, "\n  %s %s\n", dimStyle.Render("target id"), titleStyle.Render(*r.TargetID))
	}

	if r.Error != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s\n", errorTagStyle.Render(r.Error.Kind), dimStyle.Render(r.Error.Message))
		if r.Error.Retryable {
			fmt.Fprintf(&b, "  %s\n", dimStyle.Render("the failure is transient, retrying later may succeed"))
		}
	}

	if r.Validation != nil && len(r.Validation.Issues) > 0 {
		b.WriteString("\n")
		renderIssues(&b, r.Validation.Issues)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", warnTagStyle.Render("warn "), dimStyle.Render(w))
		}
	}

	if r.Canonical != nil {
		b.WriteString("\n  " + separatorLine + "\n\n")
		b.WriteString("  " + titleStyle.Render("Canonical record") + "\n\n")
		renderFields(&b, *r.Canonical)
	}

	b.WriteString("\n")
	return b.String()
}

func renderStage(b *strings.Builder, r *domain.MigrationReport, stage domain.Stage) {
	name := padRight(string(stage), 12)
	switch {
	case r.Outcome == domain.OutcomePartial && stage == domain.StageSubmitting:
		fmt.Fprintf(b, "  %s %s %s\n", warnStyle.Render("●"), name, warnStyle.Render("ambiguous"))
	case r.Error != nil && r.Error.Stage == stage:
		fmt.Fprintf(b, "  %s %s %s\n", failStyle.Render("●"), name, failStyle.Render("failed"))
	case stageReached(r, stage):
		if stage == domain.StageSubmitting && r.DryRun {
			fmt.Fprintf(b, "  %s %s %s\n", skipStyle.Render("○"), skipStyle.Render(name), skipStyle.Render("skipped"))
			return
		}
		fmt.Fprintf(b, "  %s %s\n", passStyle.Render("●"), name)
	default:
		fmt.Fprintf(b, "  %s %s\n", skipStyle.Render("○"), skipStyle.Render(name))
	}
}

// stageReached reports whether stage completed before the report finished.
func stageReached(r *domain.MigrationReport, stage domain.Stage) bool {
	if r.Outcome == domain.OutcomeSuccess {
		return true
	}
	if r.Error == nil {
		return false
	}
	return stageIndex(stage) < stageIndex(r.Error.Stage)
}

func stageIndex(s domain.Stage) int {
	for i, p := range pipeline {
		if p == s {
			return i
		}
	}
	return len(pipeline)
}

func renderIssues(b *strings.Builder, issues []domain.ValidationIssue) {
	fmt.Fprintf(b, "  %s  %s\n\n", titleStyle.Render("Validation"), errorTagStyle.Render(fmt.Sprintf("%d issues", len(issues))))
	for _, issue := range issues {
		fmt.Fprintf(b, "    %s %s\n", failStyle.Render("●"), fieldStyle.Render(issue.Field))
		fmt.Fprintf(b, "      %s\n", dimStyle.Render(issue.Message))
	}
}

func renderFields(b *strings.Builder, rec domain.CanonicalRecord) {
	for _, f := range rec.Fields() {
		fmt.Fprintf(b, "    %s %s\n", fieldStyle.Render(padRight(f.Name, 24)), dimStyle.Render(display(f.Value)))
	}
}

// RenderBatch formats a batch report: one line per record and the totals.
func RenderBatch(br *domain.BatchReport) string {
	var b strings.Builder

	title := headerStyle.Render("adshift batch")
	route := dimStyle.Render(fmt.Sprintf("%s → %s  ·  %d records", br.SourcePlatform, br.TargetPlatform, len(br.Reports)))
	totals := passStyle.Render(fmt.Sprintf("%d succeeded", br.Succeeded))
	if br.Partial > 0 {
		totals += "  " + warnStyle.Render(fmt.Sprintf("%d partial", br.Partial))
	}
	if br.Failed > 0 {
		totals += "  " + failStyle.Render(fmt.Sprintf("%d failed", br.Failed))
	}
	b.WriteString(boxStyle.Render(title + "\n" + route + "\n\n" + totals))
	b.WriteString("\n\n")

	for _, r := range br.Reports {
		line := fmt.Sprintf("  %s %s", outcomeIcon(r.Outcome), padRight(r.SourceCampaignID, 24))
		switch {
		case r.TargetID != nil:
			line += "  " + dimStyle.Render(*r.TargetID)
		case r.Error != nil:
			line += "  " + dimStyle.Render(r.Error.Message)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

// RenderHistory formats stored migration reports, newest first.
func RenderHistory(reports []*domain.MigrationReport) string {
	if len(reports) == 0 {
		return "  " + dimStyle.Render("No migration history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Migration History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for _, r := range reports {
		rev := r.SchemaRevision
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if rev == "" {
			rev = "·······"
		}

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(r.StartedAt.Format(time.DateTime)),
			faintStyle.Render(rev),
			outcomeIcon(r.Outcome),
			fmt.Sprintf("%s → %s  %s", r.SourcePlatform, r.TargetPlatform, r.SourceCampaignID),
		)
		if r.DryRun {
			line += "  " + dimStyle.Render("dry run")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func outcomeLabel(o domain.Outcome) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(outcomeColor(o)).
		Render(strings.ToUpper(string(o)))
}

func outcomeIcon(o domain.Outcome) string {
	return lipgloss.NewStyle().Foreground(outcomeColor(o)).Render("●")
}

func outcomeColor(o domain.Outcome) lipgloss.Color {
	if c, ok := outcomeColors[o]; ok {
		return c
	}
	return fg
}

// display renders a value for humans: strings unquoted, everything else as
// compact JSON, cut to a readable width.
func display(v domain.Value) string {
	s, ok := v.AsString()
	if !ok {
		s = v.String()
	}
	const width = 60
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
