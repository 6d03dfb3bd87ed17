// Package gauge holds the presentation rules shared by the desktop and
// terminal hosts: warm-up captions, flash and pulse alphas, phase colours
// and the textual rendering of a unit table.
package gauge

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"ringtimer/internal/core/ringtimer"
	"ringtimer/internal/core/timeunit"
)

// FlashPeriod is the period of the warm-up flash and the pause pulse.
const FlashPeriod = time.Second

var (
	gold           = color.NRGBA{R: 0xff, G: 0xd7, B: 0x00}
	orange         = color.NRGBA{R: 0xff, G: 0xa5, B: 0x00}
	seaGreen       = color.NRGBA{R: 0x2e, G: 0x8b, B: 0x57}
	red            = color.NRGBA{R: 0xff, G: 0x00, B: 0x00}
	lightSlateGrey = color.NRGBA{R: 0x77, G: 0x88, B: 0x99}
)

// WarmUpMessage returns the caption shown while warming up.
func WarmUpMessage(remaining time.Duration) string {
	switch {
	case remaining < 100*time.Millisecond:
		return "go.."
	case remaining < time.Second:
		return "set.."
	case remaining < 2*time.Second:
		return "ready.."
	default:
		return fmt.Sprintf("..-%d..", int64((remaining+time.Second-1)/time.Second))
	}
}

// WarmUpAlpha is the fractional part of the warm-up remaining in seconds,
// so the caption fades once per second.
func WarmUpAlpha(remaining time.Duration) float64 {
	if remaining <= 0 {
		return 0
	}
	return float64(remaining%FlashPeriod) / float64(FlashPeriod)
}

// PauseAlpha is a triangle wave over FlashPeriod, peaking at 0.5.
func PauseAlpha(now time.Time) float64 {
	phase := float64(now.UnixMilli()%FlashPeriod.Milliseconds()) / float64(FlashPeriod.Milliseconds())
	if phase > 0.5 {
		return 1 - phase
	}
	return phase
}

// PhaseColor returns the ring colour for phase.
func PhaseColor(phase ringtimer.Phase) color.NRGBA {
	switch phase {
	case ringtimer.PhaseWarmUp:
		return withAlpha(orange, 0xff)
	case ringtimer.PhaseCountdown:
		return withAlpha(seaGreen, 0xb3)
	case ringtimer.PhaseWarning:
		return withAlpha(red, 0xb3)
	case ringtimer.PhaseFinished:
		return withAlpha(gold, 0xcc)
	default:
		return withAlpha(gold, 0xb3)
	}
}

// TrackColor is the colour of the unfilled part of a ring.
func TrackColor() color.NRGBA {
	return withAlpha(lightSlateGrey, 0x33)
}

// Hex renders c as #rrggbb, dropping alpha.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SweepDegrees converts a unit's normalized fraction to a ring angle.
func SweepDegrees(unit timeunit.Unit) float64 {
	return unit.NormalizedFraction * 360
}

// ShortLabel abbreviates a unit label.
func ShortLabel(label string) string {
	switch label {
	case "millisecond":
		return "ms"
	case "second":
		return "s"
	case "minute":
		return "m"
	case "hour":
		return "h"
	case "day":
		return "d"
	}
	return label
}

// Format renders a unit table coarsest first, e.g. "2:05.678" or "1d 01:01:01.001".
func Format(units timeunit.Table) string {
	if len(units) == 0 {
		return ""
	}

	var out strings.Builder
	for i := len(units) - 1; i >= 0; i-- {
		unit := units[i]
		first := i == len(units)-1
		switch {
		case unit.Scale == time.Millisecond && first:
			fmt.Fprintf(&out, "%d", unit.Value)
		case unit.Scale == time.Millisecond:
			fmt.Fprintf(&out, ".%03d", unit.Value)
		case unit.Scale == 24*time.Hour:
			fmt.Fprintf(&out, "%dd", unit.Value)
		case first:
			fmt.Fprintf(&out, "%d", unit.Value)
		case units[i+1].Scale == 24*time.Hour:
			fmt.Fprintf(&out, " %02d", unit.Value)
		default:
			fmt.Fprintf(&out, ":%02d", unit.Value)
		}
	}
	return out.String()
}

func withAlpha(c color.NRGBA, alpha uint8) color.NRGBA {
	c.A = alpha
	return c
}
