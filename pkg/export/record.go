package export

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fitglue/gcexport/pkg/domain/activity"
	"github.com/fitglue/gcexport/pkg/integrations/garmin"
)

// HRZone is one resolved heart-rate zone bucket; a nil slot in the
// five-element array means the zone was not reported.
type HRZone struct {
	SecsInZone  *float64
	LowBoundary *float64
}

// Extract is the transient bag of per-activity derived values computed
// once and consumed by the CSV projection.
type Extract struct {
	StartTimeWithOffset time.Time
	EndTimeWithOffset   time.Time
	ElapsedDuration     *float64
	ElapsedSeconds      int64
	Device              *string
	Gear                *string
	HRZones             [5]*HRZone
	Samples             *garmin.SamplesPayload
}

func fstr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func istr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func roundN(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// froundstr rounds to the given number of digits and formats the result
// with the shortest decimal representation, no trailing zeros.
func froundstr(v *float64, digits int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(roundN(*v, digits), 'f', -1, 64)
}

func f0(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.0f", *v)
}

// titleCase capitalizes the first letter of every letter run and lowers
// the rest, like Python's str.title(); "trail_running" -> "Trail_Running".
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// coalesce prefers the details value and falls back to the list summary.
func coalesce(detail, summary *float64) *float64 {
	if detail != nil {
		return detail
	}
	return summary
}

// WriteRecord projects one enriched activity into a CSV row. Every column
// tolerates missing source fields by emitting nothing.
func WriteRecord(p *Projector, ext *Extract, act *garmin.ActivitySummary, det *garmin.ActivityDetails, typeNames, eventNames map[string]string) error {
	four := 4
	typeID, parentTypeID := &four, &four
	if act.ActivityType != nil {
		typeID = act.ActivityType.TypeID
		parentTypeID = act.ActivityType.ParentTypeID
	}
	parentTypeKey := ""
	if parentTypeID != nil {
		var known bool
		if parentTypeKey, known = activity.ParentTypeNames[*parentTypeID]; !known {
			slog.Warn("Unknown parentType", "parentTypeId", *parentTypeID)
		}
	}

	s := det.SummaryDTO
	if s == nil {
		s = &garmin.SummaryDTO{}
	}
	elevCorrected := act.ElevationCorrected != nil && *act.ElevationCorrected

	startLatitude := coalesce(s.StartLatitude, act.StartLatitude)
	startLongitude := coalesce(s.StartLongitude, act.StartLongitude)
	endLatitude := coalesce(s.EndLatitude, act.EndLatitude)
	endLongitude := coalesce(s.EndLongitude, act.EndLongitude)

	p.SetColumn("id", act.ID())
	p.SetColumn("url", "https://connect.garmin.com/modern/activity/"+act.ID())
	if act.ActivityName != nil {
		p.SetColumn("activityName", *act.ActivityName)
	}
	if act.Description != nil {
		p.SetColumn("description", *act.Description)
	}

	p.SetColumn("startTimeIso", activity.ISOFormat(ext.StartTimeWithOffset))
	p.SetColumn("startTime1123", ext.StartTimeWithOffset.Format(activity.AlmostRFC1123))
	p.SetColumn("startTimeMillis", istr(act.BeginTimestamp))
	if s.StartTimeLocal != nil {
		p.SetColumn("startTimeRaw", *s.StartTimeLocal)
	}
	p.SetColumn("endTimeIso", activity.ISOFormat(ext.EndTimeWithOffset))
	p.SetColumn("endTime1123", ext.EndTimeWithOffset.Format(activity.AlmostRFC1123))
	if act.BeginTimestamp != nil {
		p.SetColumn("endTimeMillis", strconv.FormatInt(*act.BeginTimestamp+ext.ElapsedSeconds*1000, 10))
	}

	p.SetColumn("durationRaw", froundstr(act.Duration, 3))
	if act.Duration != nil {
		rounded := math.Round(*act.Duration)
		p.SetColumn("duration", activity.HHMMSSFromSeconds(&rounded))
	}
	p.SetColumn("elapsedDurationRaw", froundstr(ext.ElapsedDuration, 3))
	if ext.ElapsedDuration != nil {
		rounded := math.Round(*ext.ElapsedDuration)
		p.SetColumn("elapsedDuration", activity.HHMMSSFromSeconds(&rounded))
	}
	p.SetColumn("movingDurationRaw", froundstr(s.MovingDuration, 3))
	if s.MovingDuration != nil {
		rounded := math.Round(*s.MovingDuration)
		p.SetColumn("movingDuration", activity.HHMMSSFromSeconds(&rounded))
	}

	if act.Distance != nil {
		p.SetColumn("distanceRaw", fmt.Sprintf("%.5f", *act.Distance/1000))
	}
	if s.AverageSpeed != nil {
		p.SetColumn("averageSpeedRaw", activity.KmhFromMps(*s.AverageSpeed))
	}
	if act.AverageSpeed != nil {
		p.SetColumn("averageSpeedPaceRaw", activity.Trunc6(activity.PaceOrSpeedRaw(typeID, parentTypeID, *act.AverageSpeed)))
		p.SetColumn("averageSpeedPace", activity.PaceOrSpeedFormatted(typeID, parentTypeID, *act.AverageSpeed))
	}
	if s.AverageMovingSpeed != nil {
		p.SetColumn("averageMovingSpeedRaw", activity.KmhFromMps(*s.AverageMovingSpeed))
		p.SetColumn("averageMovingSpeedPaceRaw", activity.Trunc6(activity.PaceOrSpeedRaw(typeID, parentTypeID, *s.AverageMovingSpeed)))
		p.SetColumn("averageMovingSpeedPace", activity.PaceOrSpeedFormatted(typeID, parentTypeID, *s.AverageMovingSpeed))
	}
	if s.MaxSpeed != nil {
		p.SetColumn("maxSpeedRaw", activity.KmhFromMps(*s.MaxSpeed))
		p.SetColumn("maxSpeedPaceRaw", activity.Trunc6(activity.PaceOrSpeedRaw(typeID, parentTypeID, *s.MaxSpeed)))
		p.SetColumn("maxSpeedPace", activity.PaceOrSpeedFormatted(typeID, parentTypeID, *s.MaxSpeed))
	}

	setElevation := func(plain, uncorr, corr string, v *float64) {
		p.SetColumn(plain, froundstr(v, 2))
		if !elevCorrected {
			p.SetColumn(uncorr, froundstr(v, 2))
		} else {
			p.SetColumn(corr, froundstr(v, 2))
		}
	}
	setElevation("elevationLoss", "elevationLossUncorr", "elevationLossCorr", s.ElevationLoss)
	setElevation("elevationGain", "elevationGainUncorr", "elevationGainCorr", s.ElevationGain)
	setElevation("minElevation", "minElevationUncorr", "minElevationCorr", s.MinElevation)
	setElevation("maxElevation", "maxElevationUncorr", "maxElevationCorr", s.MaxElevation)
	p.SetColumn("elevationCorrected", strconv.FormatBool(elevCorrected))

	p.SetColumn("maxHRRaw", fstr(s.MaxHR))
	p.SetColumn("maxHR", f0(act.MaxHR))
	p.SetColumn("averageHRRaw", fstr(s.AverageHR))
	p.SetColumn("averageHR", f0(act.AverageHR))
	p.SetColumn("caloriesRaw", fstr(s.Calories))
	p.SetColumn("calories", f0(s.Calories))
	p.SetColumn("vo2max", fstr(act.VO2MaxValue))
	p.SetColumn("aerobicEffect", froundstr(s.TrainingEffect, 2))
	p.SetColumn("anaerobicEffect", froundstr(s.AnaerobicTrainingEffect, 2))

	for i, zone := range ext.HRZones {
		if zone == nil {
			continue
		}
		p.SetColumn(fmt.Sprintf("hrZone%dLow", i+1), fstr(zone.LowBoundary))
		p.SetColumn(fmt.Sprintf("hrZone%dSeconds", i+1), f0(zone.SecsInZone))
	}

	p.SetColumn("averageRunCadence", froundstr(s.AverageRunCadence, 2))
	p.SetColumn("maxRunCadence", fstr(s.MaxRunCadence))
	p.SetColumn("strideLength", froundstr(s.StrideLength, 2))
	p.SetColumn("steps", istr(act.Steps))
	p.SetColumn("averageCadence", fstr(act.AverageBikingCadence))
	p.SetColumn("maxCadence", fstr(act.MaxBikingCadence))
	p.SetColumn("strokes", fstr(act.Strokes))
	p.SetColumn("averageTemperature", fstr(s.AverageTemperature))
	p.SetColumn("minTemperature", fstr(s.MinTemperature))
	p.SetColumn("maxTemperature", fstr(s.MaxTemperature))

	if ext.Device != nil {
		p.SetColumn("device", *ext.Device)
	}
	if ext.Gear != nil {
		p.SetColumn("gear", *ext.Gear)
	}

	if act.ActivityType != nil && act.ActivityType.TypeKey != nil {
		p.SetColumn("activityTypeKey", titleCase(*act.ActivityType.TypeKey))
		p.SetColumn("activityType", activity.ValueIfFoundElseKey(typeNames, "activity_type_"+*act.ActivityType.TypeKey))
	}
	if parentTypeKey != "" {
		p.SetColumn("activityParent", activity.ValueIfFoundElseKey(typeNames, "activity_type_"+parentTypeKey))
	}
	if act.EventType != nil && act.EventType.TypeKey != nil {
		p.SetColumn("eventTypeKey", titleCase(*act.EventType.TypeKey))
		p.SetColumn("eventType", activity.ValueIfFoundElseKey(eventNames, *act.EventType.TypeKey))
	}

	if det.AccessControlRuleDTO != nil && det.AccessControlRuleDTO.TypeKey != nil {
		p.SetColumn("privacy", *det.AccessControlRuleDTO.TypeKey)
	}
	if det.MetadataDTO != nil && det.MetadataDTO.FileFormat != nil && det.MetadataDTO.FileFormat.FormatKey != nil {
		p.SetColumn("fileFormat", *det.MetadataDTO.FileFormat.FormatKey)
	}
	if det.TimeZoneUnitDTO != nil && det.TimeZoneUnitDTO.TimeZone != nil {
		p.SetColumn("tz", *det.TimeZoneUnitDTO.TimeZone)
	}
	p.SetColumn("tzOffset", activity.TZOffset(ext.StartTimeWithOffset))
	if det.LocationName != nil {
		p.SetColumn("locationName", *det.LocationName)
	}

	setCoordinate := func(raw, truncated string, v *float64) {
		// zero coordinates are treated as absent
		if v == nil || *v == 0 {
			return
		}
		p.SetColumn(raw, fstr(v))
		p.SetColumn(truncated, activity.Trunc6(*v))
	}
	setCoordinate("startLatitudeRaw", "startLatitude", startLatitude)
	setCoordinate("startLongitudeRaw", "startLongitude", startLongitude)
	setCoordinate("endLatitudeRaw", "endLatitude", endLatitude)
	setCoordinate("endLongitudeRaw", "endLongitude", endLongitude)

	if ext.Samples != nil && ext.Samples.MetricsCount != nil {
		p.SetColumn("sampleCount", strconv.Itoa(*ext.Samples.MetricsCount))
	}

	return p.WriteRow()
}
