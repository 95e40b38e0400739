package tui

import (
	"fmt"
	"strings"

	"github.com/adshift/adshift/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle          = lipgloss.NewStyle().Foreground(dim).Italic(true)
)

// RenderValidation formats a validation report.
func RenderValidation(v domain.ValidationReport) string {
	var b strings.Builder

	status := passStyle.Render("PASS")
	if !v.Pass {
		status = failStyle.Render("FAIL")
	}
	b.WriteString(boxStyle.Render(titleStyle.Render(v.Platform) + "  " + status + "\n" + dimStyle.Render(v.Summary())))
	b.WriteString("\n")

	if len(v.Issues) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s  %s\n\n", titleStyle.Render("Validation"), errorTagStyle.Render(fmt.Sprintf("%d issues", len(v.Issues))))
		// grouped by field, in the order fields first appear
		seen := make(map[string]bool, len(v.Issues))
		for _, first := range v.Issues {
			if seen[first.Field] {
				continue
			}
			seen[first.Field] = true
			fmt.Fprintf(&b, "    %s %s\n", failStyle.Render("●"), fieldStyle.Render(first.Field))
			for _, issue := range v.IssuesFor(first.Field) {
				fmt.Fprintf(&b, "      %s\n", dimStyle.Render(issue.Message))
				if issue.Expected != "" {
					fmt.Fprintf(&b, "      %s\n", hintStyle.Render(fmt.Sprintf("expected %s, got %s", issue.Expected, issue.Actual)))
				}
			}
		}
	}

	b.WriteString("\n")
	return b.String()
}

// RenderPlatforms lists source and target platforms and the transforms
// schemas may use.
func RenderPlatforms(sources, targets, transforms []string) string {
	var b strings.Builder
	renderList(&b, "Source platforms", sources)
	renderList(&b, "Target platforms", targets)
	renderList(&b, "Transforms", transforms)
	b.WriteString("\n")
	return b.String()
}

func renderList(b *strings.Builder, title string, items []string) {
	b.WriteString("\n")
	fmt.Fprintf(b, "  %s %s\n", sectionHeaderStyle.Render(title), dimStyle.Render(fmt.Sprintf("(%d)", len(items))))
	for _, item := range items {
		fmt.Fprintf(b, "    %s %s\n", passStyle.Render("●"), item)
	}
}

// RenderSchema formats a schema definition as a mapping table.
func RenderSchema(def domain.SchemaDefinition) string {
	var b strings.Builder

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", sectionHeaderStyle.Render(def.Platform), dimStyle.Render(def.Description))
	b.WriteString("  " + separatorLine + "\n")

	for _, f := range def.Fields {
		source := f.Source
		if source == "" {
			source = "·"
		}
		line := fmt.Sprintf("    %s → %s", padRight(source, 22), fieldStyle.Render(padRight(f.Target, 22)))

		var notes []string
		if f.Required {
			notes = append(notes, warnStyle.Render("required"))
		}
		if f.Transform != "" {
			notes = append(notes, f.Transform)
		}
		if f.Cast != "" {
			notes = append(notes, "as "+string(f.Cast))
		}
		if f.HasDefault() {
			notes = append(notes, "default "+f.Default.String())
		}
		if len(notes) > 0 {
			line += "  " + dimStyle.Render(strings.Join(notes, " · "))
		}
		b.WriteString(line + "\n")
	}

	if warnings := def.Warnings(); len(warnings) > 0 {
		b.WriteString("\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s %s\n", warnTagStyle.Render("warn "), dimStyle.Render(w))
		}
	}

	b.WriteString("\n")
	return b.String()
}

// RenderRules formats a target rule set.
func RenderRules(rules domain.TargetRules) string {
	var b strings.Builder

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", sectionHeaderStyle.Render(rules.Platform), dimStyle.Render(rules.Description))
	b.WriteString("  " + separatorLine + "\n")

	for _, r := range rules.Fields {
		var notes []string
		if r.Required {
			notes = append(notes, warnStyle.Render("required"))
		}
		if r.Type != "" {
			notes = append(notes, string(r.Type))
		}
		if r.Min != nil {
			op := ">="
			if r.ExclusiveMin {
				op = ">"
			}
			notes = append(notes, fmt.Sprintf("%s %v", op, *r.Min))
		}
		if r.Max != nil {
			op := "<="
			if r.ExclusiveMax {
				op = "<"
			}
			notes = append(notes, fmt.Sprintf("%s %v", op, *r.Max))
		}
		if r.MinLength != nil || r.MaxLength != nil {
			notes = append(notes, lengthNote(r.MinLength, r.MaxLength))
		}
		if len(r.Allowed) > 0 {
			vals := make([]string, len(r.Allowed))
			for i, a := range r.Allowed {
				vals[i] = display(a)
			}
			notes = append(notes, "one of "+strings.Join(vals, "|"))
		}
		if r.Pattern != "" {
			notes = append(notes, "matches "+r.Pattern)
		}
		fmt.Fprintf(&b, "    %s %s\n", fieldStyle.Render(padRight(r.Field, 24)), dimStyle.Render(strings.Join(notes, " · ")))
	}

	if !rules.AllowUnknownFields {
		b.WriteString("\n  " + hintStyle.Render("fields not listed here are rejected") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func lengthNote(minLen, maxLen *int) string {
	switch {
	case minLen != nil && maxLen != nil:
		return fmt.Sprintf("length %d..%d", *minLen, *maxLen)
	case minLen != nil:
		return fmt.Sprintf("length >= %d", *minLen)
	default:
		return fmt.Sprintf("length <= %d", *maxLen)
	}
}

// RenderRecord formats a canonical record produced by a mapping preview.
func RenderRecord(platform string, rec domain.CanonicalRecord, warnings []string) string {
	var b strings.Builder

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n\n", sectionHeaderStyle.Render("Canonical record"), dimStyle.Render("from "+platform))
	renderFields(&b, rec)
	for _, w := range warnings {
		fmt.Fprintf(&b, "\n  %s %s", warnTagStyle.Render("warn "), dimStyle.Render(w))
	}
	if len(warnings) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
