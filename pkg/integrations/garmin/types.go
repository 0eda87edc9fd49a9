package garmin

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MultisportTypeKey marks composite activities whose legs are separate
// child activities.
const MultisportTypeKey = "multi_sport"

// ActivityType is the nested type classification of an activity.
type ActivityType struct {
	TypeID       *int    `json:"typeId"`
	TypeKey      *string `json:"typeKey"`
	ParentTypeID *int    `json:"parentTypeId"`
}

// EventType classifies the event (race, training, ...).
type EventType struct {
	TypeKey *string `json:"typeKey"`
}

// ActivitySummary is one entry of an activity list page. Multisport legs
// are synthesized from details responses and carry the same fields.
type ActivitySummary struct {
	ActivityID           int64         `json:"activityId"`
	ActivityName         *string       `json:"activityName"`
	Description          *string       `json:"description"`
	ActivityType         *ActivityType `json:"activityType"`
	EventType            *EventType    `json:"eventType"`
	StartTimeLocal       *string       `json:"startTimeLocal"`
	StartTimeGMT         *string       `json:"startTimeGMT"`
	Duration             *float64      `json:"duration"`
	Distance             *float64      `json:"distance"`
	AverageSpeed         *float64      `json:"averageSpeed"`
	MaxHR                *float64      `json:"maxHR"`
	AverageHR            *float64      `json:"averageHR"`
	BeginTimestamp       *int64        `json:"beginTimestamp"`
	ElevationCorrected   *bool         `json:"elevationCorrected"`
	VO2MaxValue          *float64      `json:"vO2MaxValue"`
	Steps                *int64        `json:"steps"`
	AverageBikingCadence *float64      `json:"averageBikingCadenceInRevPerMinute"`
	MaxBikingCadence     *float64      `json:"maxBikingCadenceInRevPerMinute"`
	Strokes              *float64      `json:"strokes"`
	StartLatitude        *float64      `json:"startLatitude"`
	StartLongitude       *float64      `json:"startLongitude"`
	EndLatitude          *float64      `json:"endLatitude"`
	EndLongitude         *float64      `json:"endLongitude"`
}

// ID returns the activity ID in the string form used as key everywhere
// (filenames, ledger, exclusion sets).
func (a *ActivitySummary) ID() string {
	return strconv.FormatInt(a.ActivityID, 10)
}

// TypeKey returns the activity type key, or "" when unknown.
func (a *ActivitySummary) TypeKey() string {
	if a.ActivityType == nil || a.ActivityType.TypeKey == nil {
		return ""
	}
	return *a.ActivityType.TypeKey
}

// ActivityDetails is the per-activity detail response. SummaryDTO holds
// the authoritative metric fields; the service occasionally answers with
// it missing, which callers retry.
type ActivityDetails struct {
	ActivityID           int64            `json:"activityId"`
	ActivityName         *string          `json:"activityName"`
	Description          *string          `json:"description"`
	ActivityTypeDTO      *ActivityType    `json:"activityTypeDTO"`
	EventType            *EventType       `json:"eventType"`
	SummaryDTO           *SummaryDTO      `json:"summaryDTO"`
	MetadataDTO          *MetadataDTO     `json:"metadataDTO"`
	AccessControlRuleDTO *AccessControl   `json:"accessControlRuleDTO"`
	TimeZoneUnitDTO      *TimeZoneUnitDTO `json:"timeZoneUnitDTO"`
	LocationName         *string          `json:"locationName"`
}

// HasSummary reports whether the summaryDTO section is present and
// non-empty.
func (d *ActivityDetails) HasSummary() bool {
	return d != nil && d.SummaryDTO != nil && *d.SummaryDTO != (SummaryDTO{})
}

// SummaryDTO carries the authoritative metrics of an activity. All fields
// are optional on the wire.
type SummaryDTO struct {
	StartTimeLocal          *string  `json:"startTimeLocal"`
	StartTimeGMT            *string  `json:"startTimeGMT"`
	StartLatitude           *float64 `json:"startLatitude"`
	StartLongitude          *float64 `json:"startLongitude"`
	EndLatitude             *float64 `json:"endLatitude"`
	EndLongitude            *float64 `json:"endLongitude"`
	Distance                *float64 `json:"distance"`
	Duration                *float64 `json:"duration"`
	MovingDuration          *float64 `json:"movingDuration"`
	ElapsedDuration         *float64 `json:"elapsedDuration"`
	AverageSpeed            *float64 `json:"averageSpeed"`
	AverageMovingSpeed      *float64 `json:"averageMovingSpeed"`
	MaxSpeed                *float64 `json:"maxSpeed"`
	ElevationGain           *float64 `json:"elevationGain"`
	ElevationLoss           *float64 `json:"elevationLoss"`
	MinElevation            *float64 `json:"minElevation"`
	MaxElevation            *float64 `json:"maxElevation"`
	AverageHR               *float64 `json:"averageHR"`
	MaxHR                   *float64 `json:"maxHR"`
	Calories                *float64 `json:"calories"`
	AverageRunCadence       *float64 `json:"averageRunCadence"`
	MaxRunCadence           *float64 `json:"maxRunCadence"`
	StrideLength            *float64 `json:"strideLength"`
	AverageTemperature      *float64 `json:"averageTemperature"`
	MinTemperature          *float64 `json:"minTemperature"`
	MaxTemperature          *float64 `json:"maxTemperature"`
	TrainingEffect          *float64 `json:"trainingEffect"`
	AnaerobicTrainingEffect *float64 `json:"anaerobicTrainingEffect"`
}

// MetadataDTO links an activity to its device, original file format and
// (for multisport parents) child activities.
type MetadataDTO struct {
	ChildIDs                        []int64         `json:"childIds"`
	DeviceApplicationInstallationID *int64          `json:"deviceApplicationInstallationId"`
	DeviceMetaDataDTO               *DeviceMetaData `json:"deviceMetaDataDTO"`
	ElevationCorrected              *bool           `json:"elevationCorrected"`
	FileFormat                      *FileFormat     `json:"fileFormat"`
}

// DeviceMetaData distinguishes three device states: deviceId key absent,
// null/"0" (known to be unresolvable) and a real ID. The raw message keeps
// the absent-vs-null distinction JSON pointers cannot express.
type DeviceMetaData struct {
	DeviceID json.RawMessage `json:"deviceId"`
}

// DeviceIDValue returns whether the deviceId key was present at all, and
// its value with quotes stripped ("" for null).
func (m *DeviceMetaData) DeviceIDValue() (present bool, value string) {
	if m == nil || m.DeviceID == nil {
		return false, ""
	}
	s := strings.Trim(string(m.DeviceID), `"`)
	if s == "null" {
		s = ""
	}
	return true, s
}

// FileFormat is the original upload format of an activity.
type FileFormat struct {
	FormatKey *string `json:"formatKey"`
}

// AccessControl is the privacy setting of an activity.
type AccessControl struct {
	TypeKey *string `json:"typeKey"`
}

// TimeZoneUnitDTO names the activity's time zone.
type TimeZoneUnitDTO struct {
	TimeZone *string `json:"timeZone"`
}

// DeviceDetails is the device-service response for one application
// installation.
type DeviceDetails struct {
	ProductDisplayName *string `json:"productDisplayName"`
	VersionString      *string `json:"versionString"`
}

// GearItem is one entry of the gear-service response.
type GearItem struct {
	DisplayName     *string `json:"displayName"`
	CustomMakeModel *string `json:"customMakeModel"`
}

// HRZoneRaw is one heart-rate zone bucket as returned by the service;
// zone numbers are 1-based.
type HRZoneRaw struct {
	ZoneNumber      *int     `json:"zoneNumber"`
	SecsInZone      *float64 `json:"secsInZone"`
	ZoneLowBoundary *float64 `json:"zoneLowBoundary"`
}

// SamplesPayload is the metrics/samples response; only the sample count
// is projected into the CSV, the payload itself is persisted verbatim.
type SamplesPayload struct {
	MetricsCount *int `json:"metricsCount"`
}

// UserStats is the statistics document of the profile page, used to
// resolve a count of "all".
type UserStats struct {
	UserMetrics []struct {
		TotalActivities *int `json:"totalActivities"`
	} `json:"userMetrics"`
}

// TotalActivities returns the account's activity total, or 0 when the
// statistics are absent.
func (u *UserStats) TotalActivities() int {
	if u == nil || len(u.UserMetrics) == 0 || u.UserMetrics[0].TotalActivities == nil {
		return 0
	}
	return *u.UserMetrics[0].TotalActivities
}
