package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fitglue/gcexport/pkg/integrations/garmin"
)

// extractDevice resolves the recording device name for an activity,
// memoizing per installation ID so each device is fetched once per run.
// Entries cached as nil record devices that could not be resolved.
func (e *Exporter) extractDevice(ctx context.Context, details *garmin.ActivityDetails, fileTime *time.Time) (*string, error) {
	if details.MetadataDTO == nil {
		slog.Warn("No metadataDTO, cannot identify the device", "id", details.ActivityID)
		return nil, nil
	}
	md := details.MetadataDTO
	if md.DeviceApplicationInstallationID == nil {
		return nil, nil
	}
	installationID := *md.DeviceApplicationInstallationID
	if cached, ok := e.deviceCache[installationID]; ok {
		return cached, nil
	}
	e.deviceCache[installationID] = nil

	// A deviceId of null or "0" means the installation is known to be
	// unresolvable; an absent key still warrants a lookup.
	present, deviceID := md.DeviceMetaDataDTO.DeviceIDValue()
	if present && (deviceID == "" || deviceID == "0") {
		return nil, nil
	}

	deviceJSON, err := e.svc.DeviceInfo(ctx, installationID)
	if err != nil {
		return nil, err
	}
	sidePath := filepath.Join(e.opts.Directory, fmt.Sprintf("device_%d.json", installationID))
	if err := e.store.Write(sidePath, []byte(deviceJSON), fileTime); err != nil {
		return nil, err
	}
	if deviceJSON == "" {
		slog.Warn("Device details are empty", "device", installationID)
		fallback := fmt.Sprintf("device_id:%d", installationID)
		e.deviceCache[installationID] = &fallback
		return e.deviceCache[installationID], nil
	}
	var dd garmin.DeviceDetails
	if err := json.Unmarshal([]byte(deviceJSON), &dd); err != nil {
		return nil, fmt.Errorf("decoding device %d details: %w", installationID, err)
	}
	if dd.ProductDisplayName == nil || *dd.ProductDisplayName == "" {
		slog.Warn("Device details incomplete", "device", installationID)
		return nil, nil
	}
	version := ""
	if dd.VersionString != nil {
		version = *dd.VersionString
	}
	name := *dd.ProductDisplayName + " " + version
	e.deviceCache[installationID] = &name
	return e.deviceCache[installationID], nil
}

// loadGear returns the display name of the first gear item linked to the
// activity. The gear endpoint is flaky; any failure degrades to no gear.
func (e *Exporter) loadGear(ctx context.Context, activityID string) *string {
	raw, gear, err := e.svc.Gear(ctx, activityID)
	if err != nil {
		slog.Info("Unable to get gear for activity", "id", activityID, "error", err)
		return nil
	}
	if len(gear) == 0 {
		return nil
	}
	if e.opts.Verbosity > 0 {
		path := filepath.Join(e.opts.Directory, fmt.Sprintf("activity_%s_gear.json", activityID))
		if err := e.store.Write(path, []byte(raw), nil); err != nil {
			slog.Warn("Unable to persist gear payload", "id", activityID, "error", err)
		}
	}
	if gear[0].DisplayName != nil && *gear[0].DisplayName != "" {
		return gear[0].DisplayName
	}
	return gear[0].CustomMakeModel
}

// loadZones fetches the heart-rate zone buckets of an activity and
// persists the raw payload next to the data file.
func (e *Exporter) loadZones(ctx context.Context, activityID string, fileTime *time.Time) ([5]*HRZone, error) {
	var zones [5]*HRZone
	raw, buckets, err := e.svc.HRZones(ctx, activityID)
	if err != nil {
		return zones, err
	}
	path := filepath.Join(e.opts.Directory, fmt.Sprintf("activity_%s_zones.json", activityID))
	if err := e.store.Write(path, []byte(raw), fileTime); err != nil {
		return zones, err
	}
	for _, b := range buckets {
		if b.ZoneNumber == nil || *b.ZoneNumber < 1 || *b.ZoneNumber > len(zones) {
			slog.Warn("Ignoring out-of-range heart-rate zone", "id", activityID, "zone", b.ZoneNumber)
			continue
		}
		zones[*b.ZoneNumber-1] = &HRZone{SecsInZone: b.SecsInZone, LowBoundary: b.ZoneLowBoundary}
	}
	return zones, nil
}

// loadSamples fetches the metric samples of an activity. Failures are
// swallowed, the samples only feed the optional sampleCount column.
func (e *Exporter) loadSamples(ctx context.Context, activityID string, fileTime *time.Time) *garmin.SamplesPayload {
	raw, err := e.svc.Samples(ctx, activityID)
	if err != nil {
		slog.Info("Unable to get samples for activity", "id", activityID, "error", err)
		return nil
	}
	path := filepath.Join(e.opts.Directory, fmt.Sprintf("activity_%s_samples.json", activityID))
	if err := e.store.Write(path, []byte(raw), fileTime); err != nil {
		slog.Warn("Unable to persist samples payload", "id", activityID, "error", err)
	}
	var payload garmin.SamplesPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		slog.Warn("Malformed samples payload", "id", activityID, "error", err)
		return nil
	}
	return &payload
}
