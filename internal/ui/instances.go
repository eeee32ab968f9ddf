package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"vdt/internal/domain"
)

// InstanceViewer displays the output of every instance of a run in an interactive TUI
type InstanceViewer struct {
	maxLines int
}

// NewInstanceViewer creates a new InstanceViewer
func NewInstanceViewer() *InstanceViewer {
	return &InstanceViewer{maxLines: 2000}
}

// View displays the run report in an interactive TUI
func (v *InstanceViewer) View(report *domain.RunReport) error {
	if len(report.Instances) == 0 {
		color.Yellow("No instances in the last run")
		return nil
	}

	failed := FailedCases(report)
	failuresOnly := false

	app := tview.NewApplication()

	// Instances (left side)
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	for i, inst := range report.Instances {
		list.AddItem(v.listItemText(i, inst), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		mode := "all output"
		if failuresOnly {
			mode = "failures only"
		}
		headerView.SetText(fmt.Sprintf(" Run %s (%d instances, %s) | ↑↓ navigate, [yellow]F[white] toggle failures, → details, ← back, Ctrl+C exit ",
			shortID(report.Meta.RunID), len(report.Instances), mode))
	}

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(report.Instances) {
			return
		}
		inst := report.Instances[index]
		statsView.SetText(v.formatStats(inst))
		if failuresOnly {
			detailsView.SetText(v.formatFailures(inst, failed[inst.InstanceID]))
		} else {
			detailsView.SetText(v.formatOutput(inst))
		}
		detailsView.ScrollToBeginning()
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'f' || event.Rune() == 'F' {
				failuresOnly = !failuresOnly
				updateHeader()
				updateDetails()
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})

	updateHeader()
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func (v *InstanceViewer) listItemText(index int, inst domain.InstanceReport) string {
	s := inst.Summary()
	marker := "[green]✓"
	if inst.InstallError != "" || s.Failed > 0 || s.Crashed {
		marker = "[red]✗"
	}
	return fmt.Sprintf("%s [yellow]%d.[white] shard %d [gray]%s[white]", marker, index+1, inst.ShardIndex, shortID(inst.InstanceID))
}

func (v *InstanceViewer) formatStats(inst domain.InstanceReport) string {
	s := inst.Summary()
	return fmt.Sprintf("[cyan]instance:[white] [yellow]%s[white]  [cyan]cases:[white] %d  [green]passed %d[white]  [red]failed %d[white]  [yellow]ignored %d[white]\n",
		inst.InstanceID, inst.CaseCount, s.Passed, s.Failed, s.Ignored)
}

func (v *InstanceViewer) formatOutput(inst domain.InstanceReport) string {
	var b strings.Builder

	if inst.InstallError != "" {
		fmt.Fprintf(&b, "[red]✗ Install failed:[white]\n%s\n\n", tview.Escape(inst.InstallError))
	}
	if len(inst.Artifacts) > 0 {
		fmt.Fprintf(&b, "[yellow]Artifacts:[white]\n")
		for _, a := range inst.Artifacts {
			fmt.Fprintf(&b, "  %s\n", tview.Escape(a))
		}
		b.WriteString("\n")
	}

	lines := inst.Output
	if len(lines) > v.maxLines {
		fmt.Fprintf(&b, "[gray]... %d earlier lines omitted[white]\n", len(lines)-v.maxLines)
		lines = lines[len(lines)-v.maxLines:]
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, domain.StatusCodePrefix+" -2"), strings.HasPrefix(line, domain.StatusCodePrefix+" -1"):
			fmt.Fprintf(&b, "[red]%s[white]\n", tview.Escape(line))
		case strings.HasPrefix(line, domain.ResultCodePrefix):
			fmt.Fprintf(&b, "[cyan]%s[white]\n", tview.Escape(line))
		default:
			fmt.Fprintf(&b, "%s\n", tview.Escape(line))
		}
	}
	return b.String()
}

func (v *InstanceViewer) formatFailures(inst domain.InstanceReport, failures []string) string {
	if inst.InstallError != "" {
		return fmt.Sprintf("[red]✗ Install failed:[white]\n%s\n", tview.Escape(inst.InstallError))
	}
	if len(failures) == 0 {
		return "[green]✓ No failed tests on this instance[white]\n"
	}
	var b strings.Builder
	for i, name := range failures {
		fmt.Fprintf(&b, "[red]%d. %s[white]\n", i+1, tview.Escape(name))
	}
	return b.String()
}
