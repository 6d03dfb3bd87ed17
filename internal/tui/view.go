package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"ringtimer/internal/core/ringtimer"
	"ringtimer/internal/ui/gauge"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle  = lipgloss.NewStyle().Width(labelColumnWidth)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	phaseStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gauge.Hex(gauge.PhaseColor(m.phase))))
	if m.phase == ringtimer.PhasePaused && gauge.PauseAlpha(m.now) < pulseFaintBelow {
		phaseStyle = phaseStyle.Faint(true)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ring timer"))
	b.WriteString("  ")
	b.WriteString(phaseStyle.Render(m.phase.String()))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  [%s]", m.status)))
	b.WriteString("\n\n")

	b.WriteString(phaseStyle.Render(gauge.Format(m.units)))
	if m.phase == ringtimer.PhaseWarmUp {
		b.WriteString("  ")
		b.WriteString(phaseStyle.Render(gauge.WarmUpMessage(m.warmUp)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderRings(phaseStyle))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(renderSettings(m)))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderRings draws one bar per unit, coarsest on top.
func (m Model) renderRings(phaseStyle lipgloss.Style) string {
	bar := progress.New(
		progress.WithSolidFill(gauge.Hex(gauge.PhaseColor(m.phase))),
		progress.WithoutPercentage(),
	)
	bar.Width = m.barWidth
	bar.EmptyColor = gauge.Hex(gauge.TrackColor())

	var b strings.Builder
	for i := len(m.units) - 1; i >= 0; i-- {
		unit := m.units[i]
		b.WriteString(labelStyle.Render(gauge.ShortLabel(unit.Label)))
		b.WriteString(bar.ViewAs(unit.NormalizedFraction))
		b.WriteString(" ")
		b.WriteString(phaseStyle.Render(fmt.Sprintf("%d", unit.Value)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderSettings(m Model) string {
	line := fmt.Sprintf("warm-up %s  countdown %s  warning %s",
		shortDuration(m.settings.WarmUpFor),
		shortDuration(m.settings.CountdownFor),
		shortDuration(m.settings.WarningFor),
	)
	if !m.buttons.Steppers {
		line += "  (locked)"
	}
	return line
}

func shortDuration(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
