package garmin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSummary(t *testing.T) {
	var details ActivityDetails

	require.NoError(t, json.Unmarshal([]byte(`{"activityId": 1}`), &details))
	assert.False(t, details.HasSummary(), "missing summaryDTO")

	require.NoError(t, json.Unmarshal([]byte(`{"activityId": 1, "summaryDTO": {}}`), &details))
	assert.False(t, details.HasSummary(), "empty summaryDTO")

	require.NoError(t, json.Unmarshal([]byte(`{"activityId": 1, "summaryDTO": {"duration": 60}}`), &details))
	assert.True(t, details.HasSummary())
}

func TestDeviceIDValue(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantPresent bool
		wantValue   string
	}{
		{"Key absent", `{}`, false, ""},
		{"Null", `{"deviceId": null}`, true, ""},
		{"Zero string", `{"deviceId": "0"}`, true, "0"},
		{"Numeric", `{"deviceId": 123}`, true, "123"},
		{"String", `{"deviceId": "xyz"}`, true, "xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var meta DeviceMetaData
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &meta))
			present, value := meta.DeviceIDValue()
			assert.Equal(t, tt.wantPresent, present)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestUserStatsTotalActivities(t *testing.T) {
	var stats UserStats
	require.NoError(t, json.Unmarshal([]byte(`{"userMetrics": [{"totalActivities": 42}]}`), &stats))
	assert.Equal(t, 42, stats.TotalActivities())

	var empty UserStats
	assert.Equal(t, 0, empty.TotalActivities())
}

func TestActivitySummaryDecode(t *testing.T) {
	payload := `{
		"activityId": 6176888711,
		"activityName": "Morning Run",
		"activityType": {"typeId": 1, "typeKey": "running", "parentTypeId": 17},
		"eventType": {"typeKey": "training"},
		"startTimeLocal": "2021-06-01 08:00:00",
		"startTimeGMT": "2021-06-01 06:00:00",
		"duration": 1800.5,
		"distance": 5000.0,
		"elevationCorrected": false
	}`
	var summary ActivitySummary
	require.NoError(t, json.Unmarshal([]byte(payload), &summary))
	assert.Equal(t, "6176888711", summary.ID())
	assert.Equal(t, "running", summary.TypeKey())
	require.NotNil(t, summary.Duration)
	assert.Equal(t, 1800.5, *summary.Duration)
	assert.Nil(t, summary.MaxHR)
}
