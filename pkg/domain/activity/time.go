package activity

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// AlmostRFC1123 is close to the datetime format the activity search
// service displays; Garmin does not zero-pad the day and hour, this does.
const AlmostRFC1123 = "Mon, 02 Jan 2006 15:04"

// isoPattern accepts the service's almost-ISO timestamps: date and time
// separated by 'T' or a space, optional fractional seconds, no zone.
var isoPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}:\d{2})(\.\d+)?`)

// DatetimeFromISO parses a naive service timestamp. Input that does not
// match the date/time pattern is an error; the caller treats it as fatal
// since it indicates a non-conforming response shape.
func DatetimeFromISO(isoDateTime string) (time.Time, error) {
	m := isoPattern.FindStringSubmatch(isoDateTime)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid ISO timestamp %q", isoDateTime)
	}
	t, err := time.Parse("2006-01-02 15:04:05", m[1]+" "+m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO timestamp %q: %w", isoDateTime, err)
	}
	if m[3] != "" {
		frac, err := strconv.ParseFloat("0"+m[3], 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid ISO timestamp %q: %w", isoDateTime, err)
		}
		t = t.Add(time.Duration(frac * float64(time.Second)))
	}
	return t, nil
}

// OffsetDateTime builds an offset-aware timestamp from the local and GMT
// naive timestamps of an activity, using their whole-minute difference as
// a fixed UTC offset.
func OffsetDateTime(timeLocal, timeGMT string) (time.Time, error) {
	localDT, err := DatetimeFromISO(timeLocal)
	if err != nil {
		return time.Time{}, err
	}
	gmtDT, err := DatetimeFromISO(timeGMT)
	if err != nil {
		return time.Time{}, err
	}
	offsetMinutes := int(localDT.Sub(gmtDT).Minutes())
	zone := time.FixedZone("LCL", offsetMinutes*60)
	return time.Date(localDT.Year(), localDT.Month(), localDT.Day(),
		localDT.Hour(), localDT.Minute(), localDT.Second(), localDT.Nanosecond(), zone), nil
}

// ISOFormat renders a timestamp the way Python's isoformat() does:
// microseconds appear only when non-zero.
func ISOFormat(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000000-07:00")
	}
	return t.Format("2006-01-02T15:04:05-07:00")
}

// TZOffset returns the trailing "+HH:MM" of an offset-aware timestamp.
func TZOffset(t time.Time) string {
	return t.Format("-07:00")
}
