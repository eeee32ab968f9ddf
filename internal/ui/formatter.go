package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"vdt/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	w      io.Writer
	colors map[string]*color.Color
}

// NewFormatter creates a new Formatter writing to stdout
func NewFormatter() *Formatter {
	return NewFormatterTo(color.Output)
}

// NewFormatterTo creates a new Formatter writing to w
func NewFormatterTo(w io.Writer) *Formatter {
	return &Formatter{w: w, colors: make(map[string]*color.Color)}
}

var instancePalette = []color.Attribute{
	color.FgCyan, color.FgMagenta, color.FgBlue, color.FgYellow, color.FgGreen,
	color.FgHiCyan, color.FgHiMagenta, color.FgHiBlue,
}

// PrintOutputLine prints a streamed output line prefixed by its instance.
// Each instance keeps one color for the whole run.
func (f *Formatter) PrintOutputLine(line domain.OutputLine) {
	c, ok := f.colors[line.InstanceID]
	if !ok {
		c = color.New(instancePalette[len(f.colors)%len(instancePalette)])
		f.colors[line.InstanceID] = c
	}
	fmt.Fprintf(f.w, "%s %s\n", c.Sprintf("[%s]", shortID(line.InstanceID)), line.Text)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintShardTree prints every shard with its apps, tests and optionally cases
func (f *Formatter) PrintShardTree(shards []domain.Shard, showCases bool) {
	if len(shards) == 0 {
		fmt.Fprintln(f.w, color.YellowString("No test cases found"))
		return
	}

	total := 0
	for _, s := range shards {
		total += s.CaseCount()
	}
	fmt.Fprintln(f.w, color.GreenString("%d test case(s) in %d shard(s):", total, len(shards)))
	fmt.Fprintln(f.w)

	for i, shard := range shards {
		lastShard := i == len(shards)-1
		fmt.Fprintln(f.w, branch("", lastShard)+color.CyanString("shard %d", i)+color.HiBlackString(" (%d cases)", shard.CaseCount()))

		shardPrefix := childPrefix("", lastShard)
		for j, app := range shard {
			lastApp := j == len(shard)-1
			fmt.Fprintln(f.w, branch(shardPrefix, lastApp)+color.YellowString("%s", filepath.Base(app.Name)))

			appPrefix := childPrefix(shardPrefix, lastApp)
			for k, test := range app.Tests {
				lastTest := k == len(app.Tests)-1
				fmt.Fprintln(f.w, branch(appPrefix, lastTest)+filepath.Base(test.Name)+color.HiBlackString(" (%d)", len(test.Cases)))

				if !showCases {
					continue
				}
				testPrefix := childPrefix(appPrefix, lastTest)
				for l, c := range test.Cases {
					fmt.Fprintln(f.w, branch(testPrefix, l == len(test.Cases)-1)+c.Name)
				}
			}
		}
	}
}

func branch(prefix string, last bool) string {
	if last {
		return prefix + "└── "
	}
	return prefix + "├── "
}

func childPrefix(prefix string, last bool) string {
	if last {
		return prefix + "    "
	}
	return prefix + "│   "
}

// PrintInstances lists farm instances sorted by name
func (f *Formatter) PrintInstances(instances []domain.Instance) {
	if len(instances) == 0 {
		fmt.Fprintln(f.w, color.YellowString("No instances found"))
		return
	}
	sorted := append([]domain.Instance(nil), instances...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	fmt.Fprintf(f.w, "%-24s %-38s %-14s %s\n", "NAME", "ID", "STATE", "AGENT")
	for _, inst := range sorted {
		state := string(inst.State)
		switch inst.State {
		case domain.StateOn:
			state = color.GreenString("%-14s", state)
		case domain.StateUnavailable:
			state = color.RedString("%-14s", state)
		default:
			state = color.YellowString("%-14s", state)
		}
		agent := inst.Agent
		if agent == "" {
			agent = "-"
		}
		fmt.Fprintf(f.w, "%-24s %-38s %s %s\n", inst.Name, inst.ID, state, agent)
	}
}

// PrintReportStats prints the statistics table of a run report
func (f *Formatter) PrintReportStats(report *domain.RunReport) {
	meta := report.Meta

	var total domain.TestSummary
	crashed := 0
	installFailed := 0
	for _, inst := range report.Instances {
		s := inst.Summary()
		total.Passed += s.Passed
		total.Failed += s.Failed
		total.Ignored += s.Ignored
		if s.Crashed {
			crashed++
		}
		if inst.InstallError != "" {
			installFailed++
		}
	}

	fmt.Fprint(f.w, "\n")
	fmt.Fprintln(f.w, color.CyanString("╔═══════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(f.w, color.CyanString("║                    Test Execution Statistics                  ║"))
	fmt.Fprintln(f.w, color.CyanString("╚═══════════════════════════════════════════════════════════════╝"))
	fmt.Fprintln(f.w)

	rows := []struct {
		label string
		value string
		paint func(format string, a ...interface{}) string
	}{
		{"Run", meta.RunID, color.WhiteString},
		{"Project", meta.Project, color.WhiteString},
		{"Status", meta.Status, statusColor(meta.Status)},
		{"Shards", fmt.Sprint(meta.Shards), color.WhiteString},
		{"Test Cases", fmt.Sprint(meta.Cases), color.WhiteString},
		{"Passed", fmt.Sprint(total.Passed), color.GreenString},
		{"Failed", fmt.Sprint(total.Failed), color.RedString},
		{"Ignored", fmt.Sprint(total.Ignored), color.YellowString},
		{"Crashed Instances", fmt.Sprint(crashed), color.RedString},
		{"Install Failures", fmt.Sprint(installFailed), color.RedString},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), color.WhiteString},
		{"Started", meta.StartedAt, color.WhiteString},
	}

	fmt.Fprintln(f.w, "┌─────────────────────────────────┬─────────────────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(f.w, "│ %-31s │ %s │\n", row.label, row.paint("%-39s", truncate(row.value, 39)))
		if i < len(rows)-1 {
			fmt.Fprintln(f.w, "├─────────────────────────────────┼─────────────────────────────────────────┤")
		}
	}
	fmt.Fprintln(f.w, "└─────────────────────────────────┴─────────────────────────────────────────┘")

	fmt.Fprintln(f.w)
	switch {
	case meta.Error != "":
		fmt.Fprintln(f.w, color.RedString("✗ %s", meta.Error))
	case total.Failed > 0 || crashed > 0:
		fmt.Fprintln(f.w, color.RedString("✗ %d test case(s) failed, %d instance(s) crashed", total.Failed, crashed))
	default:
		fmt.Fprintln(f.w, color.GreenString("✓ All tests passed!"))
	}
}

func statusColor(status string) func(format string, a ...interface{}) string {
	if status == domain.StatusSucceeded {
		return color.GreenString
	}
	return color.RedString
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// FailedCases returns the names of failed tests keyed by instance
func FailedCases(report *domain.RunReport) map[string][]string {
	failed := make(map[string][]string)
	for _, inst := range report.Instances {
		var class, test string
		for _, line := range inst.Output {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, "INSTRUMENTATION_STATUS: class="):
				class = strings.TrimPrefix(trimmed, "INSTRUMENTATION_STATUS: class=")
			case strings.HasPrefix(trimmed, "INSTRUMENTATION_STATUS: test="):
				test = strings.TrimPrefix(trimmed, "INSTRUMENTATION_STATUS: test=")
			case trimmed == domain.StatusCodePrefix+" -2" || trimmed == domain.StatusCodePrefix+" -1":
				if class != "" || test != "" {
					failed[inst.InstanceID] = append(failed[inst.InstanceID], class+"#"+test)
				}
			}
		}
	}
	return failed
}
