// Package observability provides formatted output utilities for verbose CLI
// mode.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/narendersurabhi/agents-event-driven/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// decode round-trips an untyped artifact into its typed form. Artifacts flow
// through the pipeline as decoded JSON values; this recovers the struct.
func decode(artifact any, target any) bool {
	data, err := json.Marshal(artifact)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, target) == nil
}

func listHead(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("  - %s\n", item))
	}
	return sb.String()
}

// PrintJDAnalysis outputs a human-readable summary of the JD analysis.
func (p *Printer) PrintJDAnalysis(artifact any) {
	var jd types.JDAnalysis
	if artifact == nil || !decode(artifact, &jd) {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:      %s\n", jd.RoleTitle))
	if jd.Company != "" {
		sb.WriteString(fmt.Sprintf("Company:   %s\n", jd.Company))
	}
	if jd.SeniorityLevel != "" {
		sb.WriteString(fmt.Sprintf("Seniority: %s\n", jd.SeniorityLevel))
	}
	sb.WriteString("\nMust-have skills:\n")
	sb.WriteString(listHead(jd.MustHaveSkills))
	if len(jd.NiceToHaveSkills) > 0 {
		sb.WriteString("Nice-to-have skills:\n")
		sb.WriteString(listHead(jd.NiceToHaveSkills))
	}

	p.printBox("JD Analysis", strings.TrimRight(sb.String(), "\n"))
}

// PrintPlan outputs a human-readable summary of the tailoring plan.
func (p *Printer) PrintPlan(artifact any) {
	var plan types.ResumePlan
	if artifact == nil || !decode(artifact, &plan) {
		return
	}

	included := 0
	bullets := 0
	for _, exp := range plan.ExperiencesPlan {
		if exp.Include {
			included++
			bullets += exp.TargetBulletCount
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Target:      %s\n", plan.TargetTitle))
	if plan.TargetCompany != "" {
		sb.WriteString(fmt.Sprintf("Company:     %s\n", plan.TargetCompany))
	}
	sb.WriteString(fmt.Sprintf("Length:      %s\n", plan.LengthHint))
	sb.WriteString(fmt.Sprintf("Experiences: %d included, %d bullets planned\n", included, bullets))
	if len(plan.SkillsPlan.MustHaveMissing) > 0 {
		sb.WriteString("\nMust-have skills not evidenced:\n")
		sb.WriteString(listHead(plan.SkillsPlan.MustHaveMissing))
	}

	p.printBox("Tailoring Plan", strings.TrimRight(sb.String(), "\n"))
}

// PrintQAReport outputs a human-readable summary of the QA review.
func (p *Printer) PrintQAReport(artifact any) {
	var report types.QAReport
	if artifact == nil || !decode(artifact, &report) {
		return
	}

	covered := 0
	for _, ok := range report.MustHaveCoverage {
		if ok {
			covered++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match score: %.0f/100\n", report.OverallMatchScore))
	sb.WriteString(fmt.Sprintf("Coverage:    %d/%d must-have skills\n", covered, len(report.MustHaveCoverage)))
	if len(report.Issues) > 0 {
		sb.WriteString(fmt.Sprintf("\nIssues (%d):\n", len(report.Issues)))
		for i, issue := range report.Issues {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Issues)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", issue.Severity, issue.Message))
		}
	}

	p.printBox("QA Report", strings.TrimRight(sb.String(), "\n"))
}

// PrintCoverLetter outputs a short summary of the generated cover letter.
func (p *Printer) PrintCoverLetter(artifact any) {
	var letter types.CoverLetter
	if artifact == nil || !decode(artifact, &letter) {
		return
	}

	var sb strings.Builder
	if letter.Company != "" {
		sb.WriteString(fmt.Sprintf("Company: %s\n", letter.Company))
	}
	if letter.RoleTitle != "" {
		sb.WriteString(fmt.Sprintf("Role:    %s\n", letter.RoleTitle))
	}
	words := len(strings.Fields(letter.Body))
	sb.WriteString(fmt.Sprintf("Length:  %d words", words))

	p.printBox("Cover Letter", sb.String())
}
