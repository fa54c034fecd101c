package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jwulff/studytrack/internal/config"
	"github.com/jwulff/studytrack/internal/session"
	"github.com/jwulff/studytrack/internal/stats"
	"github.com/jwulff/studytrack/internal/ui"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	defaultWidth  = 80
	subjectColumn = 24
)

// View renders the whole screen.
func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderTabs())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", width)))

	switch m.tab {
	case TabTimer:
		sections = append(sections, m.renderTimer(width))
	case TabTodo:
		sections = append(sections, m.renderTodo(width))
	case TabStats:
		sections = append(sections, m.renderStats(width))
	}

	if m.editing != editNone {
		sections = append(sections, "", m.input.View())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("STUDYTRACK")
	subj := ui.DimStyle.Render(" · ") + ui.SubjectStyle.Render(m.subject().String())
	return title + subj
}

func (m Model) renderTabs() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs = append(tabs, ui.TabActiveStyle.Render(name))
		} else {
			tabs = append(tabs, ui.TabStyle.Render(name))
		}
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.engine.State().Running {
		dot = ui.RunningDotStyle.Render("● RUNNING")
	} else {
		dot = ui.PausedDotStyle.Render("○ PAUSED")
	}
	return dot + "  " + ui.StatusStyle.Render(m.statusText)
}

func (m Model) renderTimer(width int) string {
	st := m.engine.State()

	var phase string
	if st.Phase == session.PhaseWork {
		phase = ui.WorkPhaseStyle.Render(strings.ToUpper(phaseLabel(st)))
	} else {
		phase = ui.BreakPhaseStyle.Render(strings.ToUpper(phaseLabel(st)))
	}

	lines := []string{
		"",
		"  " + phase,
		indent(ui.ClockStyle.Render(session.FormatClock(st.SecondsRemaining)), 2),
		"  " + renderBar(m.engine.Progress(), max(10, width-4), ui.BarFilledStyle),
		"",
		fmt.Sprintf("  Pomodoros: %d   Long break in: %d",
			st.CycleCount, m.engine.CyclesUntilLongBreak()),
		ui.DimStyle.Render(fmt.Sprintf("  Work %d · Short %d · Long %d min",
			st.Config.WorkMinutes, st.Config.ShortBreakMinutes, st.Config.LongBreakMinutes)),
	}
	if st.Note != "" {
		wrapped := wordwrap.String(st.Note, max(10, width-8))
		lines = append(lines, "  Note: "+strings.ReplaceAll(wrapped, "\n", "\n        "))
	}
	if exam := examLine(m.exam, m.clock.Now(), m.loc); exam != "" {
		lines = append(lines, "", "  "+ui.HeaderStyle.Render(exam))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTodo(width int) string {
	pending, completed := m.board.List(m.subject())

	header := ui.PanelTitleActiveStyle.Render(fmt.Sprintf("TO DO (%d)", len(pending)))
	lines := []string{header}

	if len(pending) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Nothing to do. Press a to add a task"))
	}
	now := m.clock.Now()
	for i, t := range pending {
		age := t.CreatedAt
		if created, ok := t.Created(m.loc); ok {
			age = humanize.RelTime(created, now, "ago", "from now")
		}
		age = ui.TimestampStyle.Render(age)
		var line string
		if i == m.selectedTask {
			line = ui.SelectedStyle.Render("> "+t.Text) + "  " + age
		} else {
			line = "  " + t.Text + "  " + age
		}
		lines = append(lines, truncateToWidth(line, width))
	}

	lines = append(lines, "", ui.PanelTitleStyle.Render(fmt.Sprintf("DONE (%d)", len(completed))))
	for _, t := range completed {
		lines = append(lines, "  "+ui.DoneStyle.Render(truncateToWidth(t.Text, max(10, width-2))))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStats(width int) string {
	sum := stats.Summarize(m.records, m.period, m.loc)

	if sum.TotalSessions == 0 {
		return strings.Join([]string{
			ui.PanelTitleActiveStyle.Render("STATS · " + strings.ToUpper(sum.Period.String())),
			"",
			ui.DimStyle.Render("  No sessions yet. Finish a pomodoro to see stats"),
		}, "\n")
	}

	title := "STATS · " + strings.ToUpper(sum.Period.String())
	lines := []string{
		ui.PanelTitleActiveStyle.Render(title) + ui.DimStyle.Render("  "+sum.LatestKey),
		"",
	}

	peak := sum.MaxPeriodMinutes()
	barWidth := max(10, width-subjectColumn-12)
	for _, l := range sum.Lines {
		frac := 0.0
		if peak > 0 {
			frac = float64(l.PeriodMinutes) / float64(peak)
		}
		style := ui.BarFilledStyle
		if sum.HasTopSubject && l.Subject == sum.TopSubject {
			style = ui.BarTopStyle
		}
		lines = append(lines,
			padRight("  "+l.Subject.String(), subjectColumn)+
				renderBar(frac, barWidth, style)+
				fmt.Sprintf(" %s min", humanize.Comma(int64(l.PeriodMinutes))))
		lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("    total %s min · %s · avg %d min",
			humanize.Comma(int64(l.TotalMinutes)), l.SessionsLabel(), l.AverageMinutes)))
	}

	lines = append(lines, "")
	if sum.HasTopSubject {
		lines = append(lines, fmt.Sprintf("  Top subject this week: %s (%s min)",
			ui.SubjectStyle.Render(sum.TopSubject.String()), humanize.Comma(int64(sum.TopMinutes))))
	}
	lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("  %s sessions recorded", humanize.Comma(int64(sum.TotalSessions)))))
	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	key := func(k, desc string) string {
		return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
	}

	if m.editing != editNone {
		return strings.Join([]string{key("Enter", "Save"), key("Esc", "Cancel")}, "  ")
	}

	var parts []string
	switch m.tab {
	case TabTimer:
		if m.engine.State().Running {
			parts = append(parts, key("Space", "Pause"))
		} else {
			parts = append(parts, key("Space", "Start"), key("c", "Resume"))
		}
		parts = append(parts, key("x", "Reset"))
		if m.engine.State().Phase == session.PhaseBreak {
			parts = append(parts, key("n", "Skip"))
		}
		parts = append(parts, key("e", "Note"), key("w/s/l", "Minutes"))
	case TabTodo:
		parts = append(parts, key("a", "Add"), key("j/k", "Nav"), key("d", "Done"),
			key("D", "Delete"), key("C", "Clear"))
	case TabStats:
		parts = append(parts, key("f", "Period"))
	}
	parts = append(parts, key("[/]", "Subject"), key("Tab", "Switch"), key("q", "Quit"))

	return strings.Join(parts, "  ")
}

// examLine renders the exam countdown, or "" when no exam is configured.
func examLine(exam config.Exam, now time.Time, loc *time.Location) string {
	if exam.Date.IsZero() {
		return ""
	}
	label := exam.Label
	if label == "" {
		label = "Exam"
	}
	days := daysUntil(now, exam.Date, loc)
	switch {
	case days < 0:
		return label + " is over"
	case days == 0:
		return label + " is today"
	case days == 1:
		return label + " is tomorrow"
	}
	return fmt.Sprintf("%s in %d days (%s)", label, days,
		humanize.RelTime(exam.Date, now, "ago", "away"))
}

// daysUntil counts calendar days from now to date in loc.
func daysUntil(now, date time.Time, loc *time.Location) int {
	y1, m1, d1 := now.In(loc).Date()
	y2, m2, d2 := date.In(loc).Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Helpers

func renderBar(frac float64, width int, filled lipgloss.Style) string {
	frac = min(max(frac, 0), 1)
	n := int(frac*float64(width) + 0.5)
	return filled.Render(strings.Repeat("█", n)) +
		ui.BarEmptyStyle.Render(strings.Repeat("░", width-n))
}

func indent(block string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return truncate.StringWithTail(s, uint(max(width, 1)), "…")
}
