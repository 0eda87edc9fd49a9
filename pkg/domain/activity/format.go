package activity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DurationPlaceholder is emitted when a duration value is missing; kept for
// CSV compatibility with earlier exports.
const DurationPlaceholder = "0.000"

// KmhFromMps converts meters/second to a km/h string for raw CSV columns.
func KmhFromMps(mps float64) string {
	return strconv.FormatFloat(mps*3.6, 'f', -1, 64)
}

// PaceOrSpeedRaw converts a speed in m/s to min/km for pace-category
// activities, km/h for everything else.
func PaceOrSpeedRaw(typeID, parentTypeID *int, mps float64) float64 {
	kmh := 3.6 * mps
	if UsesPace(typeID, parentTypeID) {
		return 60 / kmh
	}
	return kmh
}

// PaceOrSpeedFormatted converts a speed in m/s to display text: MM:SS
// minutes per km for pace-category activities (seconds rounded, overflow
// carried into minutes), otherwise km/h with one decimal.
func PaceOrSpeedFormatted(typeID, parentTypeID *int, mps float64) string {
	kmh := 3.6 * mps
	if UsesPace(typeID, parentTypeID) {
		secPerKm := int(math.Round(3600 / kmh))
		return fmt.Sprintf("%02d:%02d", secPerKm/60, secPerKm%60)
	}
	return fmt.Sprintf("%.1f", kmh)
}

// HHMMSSFromSeconds formats a duration as H:MM:SS text, zero-padded to
// width 8 ("00:05:00"); durations of a day or more use the long form
// "N day, H:MM:SS". A nil duration yields the placeholder.
func HHMMSSFromSeconds(sec *float64) string {
	if sec == nil {
		return DurationPlaceholder
	}
	total := int64(*sec)
	days := total / 86400
	rem := total % 86400
	hms := fmt.Sprintf("%d:%02d:%02d", rem/3600, rem%3600/60, rem%60)
	if days == 1 {
		return fmt.Sprintf("1 day, %s", hms)
	}
	if days > 1 {
		return fmt.Sprintf("%d days, %s", days, hms)
	}
	if pad := 8 - len(hms); pad > 0 {
		return strings.Repeat("0", pad) + hms
	}
	return hms
}

// Trunc6 formats a float with six decimals, truncated (not rounded)
// towards negative infinity.
func Trunc6(v float64) string {
	return fmt.Sprintf("%.6f", math.Floor(v*1000000)/1000000)
}
