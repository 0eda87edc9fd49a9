package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitglue/gcexport/pkg/infrastructure/storage"
	"github.com/fitglue/gcexport/pkg/integrations/garmin"
)

// fakeService scripts the remote API for pipeline tests. detailsFn may
// vary its answer by call number to exercise the retry loop; the other
// hooks override the per-endpoint defaults when set.
type fakeService struct {
	page        []garmin.ActivitySummary
	total       int
	detailsFn   func(id string, call int) *garmin.ActivityDetails
	downloadFn  func(format, id string) ([]byte, error)
	deviceFn    func(installationID int64) (string, error)
	gearFn      func(id string) (string, []garmin.GearItem, error)
	zonesFn     func(id string) (string, []garmin.HRZoneRaw, error)
	detailCalls map[string]int
	deviceCalls int
}

func newFakeService(total int, page []garmin.ActivitySummary) *fakeService {
	return &fakeService{
		page:        page,
		total:       total,
		detailCalls: make(map[string]int),
		detailsFn: func(id string, call int) *garmin.ActivityDetails {
			return detailsFor(id)
		},
	}
}

func (f *fakeService) DisplayName(ctx context.Context) (string, string, error) {
	return "test.user", "<html></html>", nil
}

func (f *fakeService) UserStats(ctx context.Context, displayName string) (string, *garmin.UserStats, error) {
	raw := fmt.Sprintf(`{"userMetrics":[{"totalActivities":%d}]}`, f.total)
	var stats garmin.UserStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return "", nil, err
	}
	return raw, &stats, nil
}

func (f *fakeService) ActivityList(ctx context.Context, start, limit int) (string, []garmin.ActivitySummary, error) {
	if start >= len(f.page) {
		return "[]", nil, nil
	}
	page := f.page[start:]
	if len(page) > limit {
		page = page[:limit]
	}
	raw, err := json.Marshal(page)
	return string(raw), page, err
}

func (f *fakeService) ActivityDetails(ctx context.Context, activityID string) (string, *garmin.ActivityDetails, error) {
	f.detailCalls[activityID]++
	d := f.detailsFn(activityID, f.detailCalls[activityID])
	raw, err := json.Marshal(d)
	return string(raw), d, err
}

func (f *fakeService) DeviceInfo(ctx context.Context, installationID int64) (string, error) {
	f.deviceCalls++
	if f.deviceFn != nil {
		return f.deviceFn(installationID)
	}
	return `{"productDisplayName":"Forerunner 945","versionString":"10.0"}`, nil
}

func (f *fakeService) Gear(ctx context.Context, activityID string) (string, []garmin.GearItem, error) {
	if f.gearFn != nil {
		return f.gearFn(activityID)
	}
	return "[]", nil, nil
}

func (f *fakeService) HRZones(ctx context.Context, activityID string) (string, []garmin.HRZoneRaw, error) {
	if f.zonesFn != nil {
		return f.zonesFn(activityID)
	}
	return "[]", nil, nil
}

func (f *fakeService) Samples(ctx context.Context, activityID string) (string, error) {
	return `{"metricsCount":5}`, nil
}

func (f *fakeService) Download(ctx context.Context, format, activityID string) ([]byte, error) {
	if f.downloadFn != nil {
		return f.downloadFn(format, activityID)
	}
	return []byte("payload"), nil
}

func (f *fakeService) ActivityTypeProperties(ctx context.Context) (string, error) {
	return "activity_type_running=Running\nactivity_type_cycling=Cycling\n", nil
}

func (f *fakeService) EventTypeProperties(ctx context.Context) (string, error) {
	return "race=Race\nuncategorized=Uncategorized\n", nil
}

func strPtr(s string) *string { return &s }
func fPtr(v float64) *float64 { return &v }
func iPtr(v int) *int         { return &v }

func summaryFor(id int64, typeKey string) garmin.ActivitySummary {
	return garmin.ActivitySummary{
		ActivityID:     id,
		ActivityName:   strPtr(fmt.Sprintf("Activity %d", id)),
		ActivityType:   &garmin.ActivityType{TypeID: iPtr(1), TypeKey: strPtr(typeKey), ParentTypeID: iPtr(17)},
		StartTimeLocal: strPtr("2021-06-01 10:00:00.0"),
		StartTimeGMT:   strPtr("2021-06-01 08:00:00.0"),
		Duration:       fPtr(600),
		Distance:       fPtr(3000),
	}
}

func detailsFor(id string) *garmin.ActivityDetails {
	var numeric int64
	fmt.Sscanf(id, "%d", &numeric)
	return &garmin.ActivityDetails{
		ActivityID:   numeric,
		ActivityName: strPtr(fmt.Sprintf("Activity %s", id)),
		ActivityTypeDTO: &garmin.ActivityType{
			TypeID: iPtr(1), TypeKey: strPtr("running"), ParentTypeID: iPtr(17),
		},
		EventType: &garmin.EventType{TypeKey: strPtr("uncategorized")},
		SummaryDTO: &garmin.SummaryDTO{
			StartTimeLocal:  strPtr("2021-06-01 10:00:00.0"),
			StartTimeGMT:    strPtr("2021-06-01 08:00:00.0"),
			Duration:        fPtr(600),
			ElapsedDuration: fPtr(600),
			Distance:        fPtr(3000),
		},
	}
}

func newTestExporter(t *testing.T, svc Service, dir string, out *bytes.Buffer, count string) *Exporter {
	t.Helper()
	template := filepath.Join(dir, "template.properties")
	if _, err := os.Stat(template); err != nil {
		content := "id=Activity ID\nactivityName=Name\nstartTimeIso=Start\n"
		require.NoError(t, os.WriteFile(template, []byte(content), 0o644))
	}
	schema, err := LoadSchema(template)
	require.NoError(t, err)
	return New(svc, &storage.FileStore{}, NewProjector(out, schema), Options{
		Directory:       dir,
		Format:          "json",
		Count:           count,
		StartActivityNo: 1,
	})
}

func TestAnnotate(t *testing.T) {
	activities := []garmin.ActivitySummary{
		summaryFor(100, "running"),
		summaryFor(123, "running"),
		summaryFor(200, "cycling"),
	}

	annotated := annotate(activities, 1, map[string]bool{"123": true})
	require.Len(t, annotated, 3)
	assert.Equal(t, actionDownload, annotated[0].Action)
	assert.Equal(t, actionExclude, annotated[1].Action)
	assert.Equal(t, actionDownload, annotated[2].Action)

	annotated = annotate(activities, 3, map[string]bool{"123": true})
	assert.Equal(t, actionSkip, annotated[0].Action)
	assert.Equal(t, actionSkip, annotated[1].Action)
	assert.Equal(t, actionDownload, annotated[2].Action)
}

func TestFetchMultisportsOrdering(t *testing.T) {
	svc := newFakeService(2, nil)
	svc.detailsFn = func(id string, call int) *garmin.ActivityDetails {
		d := detailsFor(id)
		if id == "1" {
			d.MetadataDTO = &garmin.MetadataDTO{ChildIDs: []int64{2, 3, 4}}
		}
		return d
	}

	e := newTestExporter(t, svc, t.TempDir(), &bytes.Buffer{}, "2")
	page := []garmin.ActivitySummary{
		summaryFor(1, garmin.MultisportTypeKey),
		summaryFor(9, "running"),
	}

	expanded, err := e.fetchMultisports(context.Background(), page)
	require.NoError(t, err)

	var ids []int64
	for _, s := range expanded {
		ids = append(ids, s.ActivityID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 9}, ids)
}

func TestFetchDetailsRetries(t *testing.T) {
	svc := newFakeService(1, nil)
	svc.detailsFn = func(id string, call int) *garmin.ActivityDetails {
		if call < 3 {
			return &garmin.ActivityDetails{} // no summaryDTO yet
		}
		return detailsFor(id)
	}
	e := newTestExporter(t, svc, t.TempDir(), &bytes.Buffer{}, "1")

	_, details, err := e.fetchDetails(context.Background(), "55")
	require.NoError(t, err)
	assert.True(t, details.HasSummary())
	assert.Equal(t, 3, svc.detailCalls["55"])
}

func TestFetchDetailsGivesUp(t *testing.T) {
	svc := newFakeService(1, nil)
	svc.detailsFn = func(id string, call int) *garmin.ActivityDetails {
		return &garmin.ActivityDetails{}
	}
	e := newTestExporter(t, svc, t.TempDir(), &bytes.Buffer{}, "1")

	_, _, err := e.fetchDetails(context.Background(), "55")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summaryDTO")
	assert.Equal(t, 3, svc.detailCalls["55"])
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	svc := newFakeService(1, []garmin.ActivitySummary{summaryFor(100, "running")})

	var firstRun bytes.Buffer
	e := newTestExporter(t, svc, dir, &firstRun, "1")
	require.NoError(t, e.Run(context.Background()))

	assert.Contains(t, firstRun.String(), `"100"`)
	assert.FileExists(t, filepath.Join(dir, "activity_100.json"))
	assert.Equal(t, []string{"100"}, readLedger(t, dir))

	// a second run over the same directory skips the existing file and
	// appends no CSV row
	var secondRun bytes.Buffer
	e = newTestExporter(t, newFakeService(1, []garmin.ActivitySummary{summaryFor(100, "running")}), dir, &secondRun, "1")
	require.NoError(t, e.Run(context.Background()))

	assert.Empty(t, secondRun.String())
	assert.Equal(t, []string{"100"}, readLedger(t, dir))
}
