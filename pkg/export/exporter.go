package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fitglue/gcexport/pkg/domain/activity"
	"github.com/fitglue/gcexport/pkg/integrations/garmin"
)

// limitMaximum is the largest page size the activity-list endpoint
// accepts.
const limitMaximum = 1000

// maxTries bounds the activity-details retry loop.
const maxTries = 3

// Service is the remote API surface the exporter drives. garmin.Client
// implements it.
type Service interface {
	DisplayName(ctx context.Context) (name string, profilePage string, err error)
	UserStats(ctx context.Context, displayName string) (raw string, stats *garmin.UserStats, err error)
	ActivityList(ctx context.Context, start, limit int) (raw string, page []garmin.ActivitySummary, err error)
	ActivityDetails(ctx context.Context, activityID string) (raw string, details *garmin.ActivityDetails, err error)
	DeviceInfo(ctx context.Context, installationID int64) (raw string, err error)
	Gear(ctx context.Context, activityID string) (raw string, gear []garmin.GearItem, err error)
	HRZones(ctx context.Context, activityID string) (raw string, zones []garmin.HRZoneRaw, err error)
	Samples(ctx context.Context, activityID string) (raw string, err error)
	Download(ctx context.Context, format, activityID string) ([]byte, error)
	ActivityTypeProperties(ctx context.Context) (string, error)
	EventTypeProperties(ctx context.Context) (string, error)
}

// FileWriter persists payloads and data files, optionally backdating the
// modification time.
type FileWriter interface {
	Write(path string, data []byte, modTime *time.Time) error
	Exists(path string) bool
}

// Options configures one export run.
type Options struct {
	Directory       string
	Subdir          *string
	Format          string
	Count           string
	StartActivityNo int
	Exclude         map[string]bool
	Unzip           bool
	OriginalTime    bool
	Desc            *int
	FilePrefix      bool
	Verbosity       int
}

// Exporter owns the per-run state of an export: the device cache and the
// resolved type/event name tables.
type Exporter struct {
	svc       Service
	store     FileWriter
	projector *Projector
	opts      Options

	deviceCache map[int64]*string
	typeNames   map[string]string
	eventNames  map[string]string
}

func New(svc Service, store FileWriter, projector *Projector, opts Options) *Exporter {
	return &Exporter{
		svc:         svc,
		store:       store,
		projector:   projector,
		opts:        opts,
		deviceCache: make(map[int64]*string),
	}
}

type action int

const (
	actionSkip action = iota
	actionExclude
	actionDownload
)

type annotatedActivity struct {
	Index    int
	Action   action
	Activity garmin.ActivitySummary
}

// annotate assigns each activity an action: positional skip before the
// 1-based start index, exclusion by ID, download otherwise. Skip is
// purely positional and checked first.
func annotate(activities []garmin.ActivitySummary, start int, exclude map[string]bool) []annotatedActivity {
	annotated := make([]annotatedActivity, 0, len(activities))
	for i, a := range activities {
		act := actionDownload
		switch {
		case i < start-1:
			act = actionSkip
		case exclude[a.ID()]:
			act = actionExclude
		}
		annotated = append(annotated, annotatedActivity{Index: i, Action: act, Activity: a})
	}
	return annotated
}

// Run performs the export: resolve the target count, assemble the
// activity list and process every entry in sequence.
func (e *Exporter) Run(ctx context.Context) error {
	total, err := e.resolveTotal(ctx)
	if err != nil {
		return err
	}

	if err := e.loadPropertyTables(ctx); err != nil {
		return err
	}

	activities, err := e.fetchActivityList(ctx, total)
	if err != nil {
		return err
	}
	annotated := annotate(activities, e.opts.StartActivityNo, e.opts.Exclude)

	for _, item := range annotated {
		if err := ctx.Err(); err != nil {
			return err
		}
		currentIndex := item.Index + 1
		a := item.Activity
		switch item.Action {
		case actionSkip:
			fmt.Printf("Skipping     : Garmin Connect activity (%d/%d) [%s]\n", currentIndex, len(annotated), a.ID())
			continue
		case actionExclude:
			fmt.Printf("Excluding    : Garmin Connect activity (%d/%d) [%s]\n", currentIndex, len(annotated), a.ID())
			continue
		}
		if err := e.processActivity(ctx, &a, currentIndex, len(annotated)); err != nil {
			return err
		}
	}
	return nil
}

// resolveTotal turns the configured count into a concrete number,
// querying the account statistics when the count is "all". The raw
// statistics document is persisted as userstats.json either way.
func (e *Exporter) resolveTotal(ctx context.Context) (int, error) {
	fmt.Print("Getting display name...")
	displayName, profilePage, err := e.svc.DisplayName(ctx)
	if err != nil {
		return 0, err
	}
	if e.opts.Verbosity > 0 {
		if err := e.store.Write(filepath.Join(e.opts.Directory, "profile.html"), []byte(profilePage), nil); err != nil {
			return 0, err
		}
	}
	fmt.Println("Done. displayName =", displayName)

	fmt.Print("Fetching user stats...")
	statsRaw, stats, err := e.svc.UserStats(ctx, displayName)
	if err != nil {
		return 0, err
	}
	fmt.Println("Done")
	if err := e.store.Write(filepath.Join(e.opts.Directory, "userstats.json"), []byte(statsRaw), nil); err != nil {
		return 0, err
	}

	if e.opts.Count == "all" {
		return stats.TotalActivities(), nil
	}
	n, err := strconv.Atoi(e.opts.Count)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", e.opts.Count, err)
	}
	return n, nil
}

// loadPropertyTables fetches the activity-type and event-type display
// name tables used to resolve human-readable classification columns.
func (e *Exporter) loadPropertyTables(ctx context.Context) error {
	actProps, err := e.svc.ActivityTypeProperties(ctx)
	if err != nil {
		return err
	}
	if e.opts.Verbosity > 0 {
		if err := e.store.Write(filepath.Join(e.opts.Directory, "activity_types.properties"), []byte(actProps), nil); err != nil {
			return err
		}
	}
	e.typeNames, _ = activity.ParseProperties(actProps)

	evtProps, err := e.svc.EventTypeProperties(ctx)
	if err != nil {
		return err
	}
	if e.opts.Verbosity > 0 {
		if err := e.store.Write(filepath.Join(e.opts.Directory, "event_types.properties"), []byte(evtProps), nil); err != nil {
			return err
		}
	}
	e.eventNames, _ = activity.ParseProperties(evtProps)
	return nil
}

// fetchActivityList assembles the first total activity summaries in
// pages bounded by limitMaximum, expanding multisport parents per page.
func (e *Exporter) fetchActivityList(ctx context.Context, total int) ([]garmin.ActivitySummary, error) {
	var activities []garmin.ActivitySummary
	downloaded := 0
	for downloaded < total {
		num := total - downloaded
		if num > limitMaximum {
			num = limitMaximum
		}
		chunk, err := e.fetchActivityChunk(ctx, num, downloaded)
		if err != nil {
			return nil, err
		}
		activities = append(activities, chunk...)
		downloaded += num
	}
	// multisport parents are not counted in the account statistics
	if len(activities) != total {
		slog.Info("Activity count differs from target", "expected", total, "got", len(activities))
	}
	return activities, nil
}

// fetchActivityChunk requests one page of summaries, persists the raw
// response for auditing, and expands multisport parents in place.
func (e *Exporter) fetchActivityChunk(ctx context.Context, num, downloaded int) ([]garmin.ActivitySummary, error) {
	fmt.Printf("Querying list of activities %d..%d...", downloaded+1, downloaded+num)
	raw, page, err := e.svc.ActivityList(ctx, downloaded, num)
	if err != nil {
		return nil, err
	}
	fmt.Println("Done.")

	listFilename := fmt.Sprintf("activities-%d-%d.json", downloaded+1, downloaded+num)
	if err := e.store.Write(filepath.Join(e.opts.Directory, listFilename), []byte(raw), nil); err != nil {
		return nil, err
	}
	return e.fetchMultisports(ctx, page)
}

// fetchMultisports expands every multisport parent of a page into the
// parent followed by its children in their original order.
func (e *Exporter) fetchMultisports(ctx context.Context, page []garmin.ActivitySummary) ([]garmin.ActivitySummary, error) {
	expanded := make([]garmin.ActivitySummary, 0, len(page))
	for i := range page {
		parent := page[i]
		expanded = append(expanded, parent)
		if parent.TypeKey() != garmin.MultisportTypeKey {
			continue
		}
		_, details, err := e.fetchDetails(ctx, parent.ID())
		if err != nil {
			return nil, err
		}
		if details.MetadataDTO == nil || len(details.MetadataDTO.ChildIDs) == 0 {
			continue
		}
		for _, childID := range details.MetadataDTO.ChildIDs {
			childKey := strconv.FormatInt(childID, 10)
			childRaw, childDetails, err := e.fetchDetails(ctx, childKey)
			if err != nil {
				return nil, err
			}
			if e.opts.Verbosity > 0 {
				path := filepath.Join(e.opts.Directory, "child_"+childKey+".json")
				if err := e.store.Write(path, []byte(childRaw), nil); err != nil {
					return nil, err
				}
			}
			expanded = append(expanded, summaryFromDetails(childDetails))
		}
	}
	return expanded, nil
}

// summaryFromDetails synthesizes a list-style summary for a multisport
// child from its details response.
func summaryFromDetails(d *garmin.ActivityDetails) garmin.ActivitySummary {
	s := garmin.ActivitySummary{
		ActivityID:   d.ActivityID,
		ActivityName: d.ActivityName,
		Description:  d.Description,
		ActivityType: &garmin.ActivityType{},
		EventType:    &garmin.EventType{},
	}
	if d.ActivityTypeDTO != nil {
		s.ActivityType = d.ActivityTypeDTO
	}
	if d.EventType != nil {
		s.EventType = d.EventType
	}
	if d.SummaryDTO != nil {
		s.StartTimeLocal = d.SummaryDTO.StartTimeLocal
		s.StartTimeGMT = d.SummaryDTO.StartTimeGMT
		s.Duration = d.SummaryDTO.Duration
		s.Distance = d.SummaryDTO.Distance
		s.AverageSpeed = d.SummaryDTO.AverageSpeed
		s.MaxHR = d.SummaryDTO.MaxHR
		s.AverageHR = d.SummaryDTO.AverageHR
	}
	if d.MetadataDTO != nil {
		s.ElevationCorrected = d.MetadataDTO.ElevationCorrected
	}
	return s
}

var errRetriesExhausted = errors.New("retries exhausted")

// retry runs op up to attempts times until it reports done or fails.
func retry(attempts int, op func(attempt int) (done bool, err error)) error {
	for attempt := 1; attempt <= attempts; attempt++ {
		done, err := op(attempt)
		if err != nil || done {
			return err
		}
	}
	return errRetriesExhausted
}

// fetchDetails gets the details of an activity, retrying when the
// service answers without the summaryDTO section.
func (e *Exporter) fetchDetails(ctx context.Context, activityID string) (string, *garmin.ActivityDetails, error) {
	var raw string
	var details *garmin.ActivityDetails
	err := retry(maxTries, func(attempt int) (bool, error) {
		var err error
		raw, details, err = e.svc.ActivityDetails(ctx, activityID)
		if err != nil {
			return false, err
		}
		if details.HasSummary() {
			return true, nil
		}
		slog.Info("Retrying activity details download, no summaryDTO", "id", activityID, "attempt", attempt)
		return false, nil
	})
	if errors.Is(err, errRetriesExhausted) {
		return "", nil, fmt.Errorf("didn't get summaryDTO after %d tries for %s", maxTries, activityID)
	}
	if err != nil {
		return "", nil, err
	}
	return raw, details, nil
}

// processActivity runs the full per-activity pipeline: details, derived
// fields, data file, enrichment, CSV row and ledger update.
func (e *Exporter) processActivity(ctx context.Context, a *garmin.ActivitySummary, currentIndex, total int) error {
	activityID := a.ID()
	name := ""
	if a.ActivityName != nil {
		name = *a.ActivityName
	}
	fmt.Printf("Downloading: Garmin Connect activity (%d/%d) [%s] %s\n", currentIndex, total, activityID, name)

	detailsRaw, details, err := e.fetchDetails(ctx, activityID)
	if err != nil {
		return err
	}

	ext, err := e.extractFields(a, details)
	if err != nil {
		return err
	}

	fmt.Printf("\t%s, %s, ", activity.ISOFormat(ext.StartTimeWithOffset), hhmmssFromInt(ext.ElapsedSeconds))
	if a.Distance != nil {
		fmt.Printf("%.3fkm\n", *a.Distance/1000)
	} else {
		fmt.Println("0.000 km")
	}

	appendDesc := ""
	if e.opts.Desc != nil {
		appendDesc = "_" + activity.SanitizeFilename(name, *e.opts.Desc)
	}

	var fileTime *time.Time
	if e.opts.OriginalTime {
		fileTime = epochTime(a, ext)
	}

	written, err := e.exportDataFile(ctx, a, detailsRaw, fileTime, appendDesc)
	if err != nil {
		return err
	}
	if !written {
		return nil
	}

	if e.projector.IsActive("device") {
		ext.Device, err = e.extractDevice(ctx, details, fileTime)
		if err != nil {
			return err
		}
	}
	if e.projector.IsActive("sampleCount") {
		ext.Samples = e.loadSamples(ctx, activityID, fileTime)
	}
	if e.projector.IsActive("gear") {
		ext.Gear = e.loadGear(ctx, activityID)
	}
	if e.projector.IsActive("hrZone1Low") || e.projector.IsActive("hrZone1Seconds") {
		ext.HRZones, err = e.loadZones(ctx, activityID, fileTime)
		if err != nil {
			return err
		}
	}

	if err := WriteRecord(e.projector, ext, a, details, e.typeNames, e.eventNames); err != nil {
		return err
	}
	return UpdateDownloadLedger(e.opts.Directory, activityID)
}

// extractFields computes the offset timestamps and elapsed duration of
// an activity.
func (e *Exporter) extractFields(a *garmin.ActivitySummary, details *garmin.ActivityDetails) (*Extract, error) {
	if a.StartTimeLocal == nil || a.StartTimeGMT == nil {
		return nil, fmt.Errorf("activity %s has no start timestamps", a.ID())
	}
	start, err := activity.OffsetDateTime(*a.StartTimeLocal, *a.StartTimeGMT)
	if err != nil {
		return nil, err
	}

	ext := &Extract{StartTimeWithOffset: start}
	if details.SummaryDTO != nil && details.SummaryDTO.ElapsedDuration != nil {
		ext.ElapsedDuration = details.SummaryDTO.ElapsedDuration
	} else {
		ext.ElapsedDuration = a.Duration
	}
	if ext.ElapsedDuration != nil {
		ext.ElapsedSeconds = int64(math.Round(*ext.ElapsedDuration))
	}
	ext.EndTimeWithOffset = start.Add(time.Duration(ext.ElapsedSeconds) * time.Second)
	return ext, nil
}

func hhmmssFromInt(seconds int64) string {
	f := float64(seconds)
	return activity.HHMMSSFromSeconds(&f)
}

// epochTime derives the file timestamp of an activity, preferring the
// millisecond begin timestamp over the computed offset time.
func epochTime(a *garmin.ActivitySummary, ext *Extract) *time.Time {
	if a.BeginTimestamp != nil {
		t := time.Unix(*a.BeginTimestamp/1000, 0)
		return &t
	}
	t := ext.StartTimeWithOffset
	return &t
}
