// Package garmin is the API client for Garmin Connect: the SSO login flow
// and the proxy endpoints for activity lists, details, downloads and the
// auxiliary device/gear/zone/sample lookups.
package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	httputil "github.com/fitglue/gcexport/pkg/infrastructure/http"
)

const (
	urlProfile   = "https://connect.garmin.com/modern/profile"
	urlUserStats = "https://connect.garmin.com/modern/proxy/userstats-service/statistics/"
	urlList      = "https://connect.garmin.com/modern/proxy/activitylist-service/activities/search/activities?"
	urlActivity  = "https://connect.garmin.com/modern/proxy/activity-service/activity/"
	urlDevice    = "https://connect.garmin.com/modern/proxy/device-service/deviceservice/app-info/"
	urlGear      = "https://connect.garmin.com/modern/proxy/gear-service/gear/filterGear?activityId="
	urlActProps  = "https://connect.garmin.com/modern/main/js/properties/activity_types/activity_types.properties"
	urlEvtProps  = "https://connect.garmin.com/modern/main/js/properties/event_types/event_types.properties"
	urlGPX       = "https://connect.garmin.com/modern/proxy/download-service/export/gpx/activity/"
	urlTCX       = "https://connect.garmin.com/modern/proxy/download-service/export/tcx/activity/"
	urlOriginal  = "http://connect.garmin.com/proxy/download-service/files/activity/"
)

var displayNamePattern = regexp.MustCompile(`"displayName":"(.+?)"`)

// Client talks to Garmin Connect through an authenticated session.
type Client struct {
	session *httputil.Session
}

// NewClient wraps an (already or soon-to-be authenticated) session.
func NewClient(session *httputil.Session) *Client {
	return &Client{session: session}
}

// DisplayName fetches the profile page and extracts the display name
// needed for the statistics endpoint. The page HTML is returned for
// verbose persistence.
func (c *Client) DisplayName(ctx context.Context) (string, string, error) {
	page, err := c.session.RequestString(ctx, urlProfile, nil, nil)
	if err != nil {
		return "", "", err
	}
	m := displayNamePattern.FindStringSubmatch(page)
	if m == nil {
		return "", page, fmt.Errorf("did not find the display name in the profile page")
	}
	return m[1], page, nil
}

// UserStats fetches the account statistics document. The raw body is
// returned for verbatim persistence.
func (c *Client) UserStats(ctx context.Context, displayName string) (string, *UserStats, error) {
	raw, err := c.session.RequestString(ctx, urlUserStats+displayName, nil, nil)
	if err != nil {
		return "", nil, err
	}
	var stats UserStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return raw, nil, fmt.Errorf("decode userstats: %w", err)
	}
	return raw, &stats, nil
}

// ActivityList fetches one page of activity summaries. The raw body is
// returned so the caller can persist it before anything is parsed.
func (c *Client) ActivityList(ctx context.Context, start, limit int) (string, []ActivitySummary, error) {
	params := url.Values{}
	params.Set("start", fmt.Sprint(start))
	params.Set("limit", fmt.Sprint(limit))
	raw, err := c.session.RequestString(ctx, urlList+params.Encode(), nil, nil)
	if err != nil {
		return "", nil, err
	}
	var page []ActivitySummary
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return raw, nil, fmt.Errorf("decode activity list: %w", err)
	}
	return raw, page, nil
}

// ActivityDetails fetches the detail document for one activity.
func (c *Client) ActivityDetails(ctx context.Context, activityID string) (string, *ActivityDetails, error) {
	raw, err := c.session.RequestString(ctx, urlActivity+activityID, nil, nil)
	if err != nil {
		return "", nil, err
	}
	var details ActivityDetails
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return raw, nil, fmt.Errorf("decode details for %s: %w", activityID, err)
	}
	return raw, &details, nil
}

// DeviceInfo fetches the device details for one application installation.
func (c *Client) DeviceInfo(ctx context.Context, deviceAppInstID int64) (string, error) {
	return c.session.RequestString(ctx, fmt.Sprintf("%s%d", urlDevice, deviceAppInstID), nil, nil)
}

// Gear fetches the gear assigned to one activity.
func (c *Client) Gear(ctx context.Context, activityID string) (string, []GearItem, error) {
	raw, err := c.session.RequestString(ctx, urlGear+activityID, nil, nil)
	if err != nil {
		return "", nil, err
	}
	var gear []GearItem
	if err := json.Unmarshal([]byte(raw), &gear); err != nil {
		return raw, nil, fmt.Errorf("decode gear for %s: %w", activityID, err)
	}
	return raw, gear, nil
}

// HRZones fetches the heart-rate zone buckets of one activity.
func (c *Client) HRZones(ctx context.Context, activityID string) (string, []HRZoneRaw, error) {
	raw, err := c.session.RequestString(ctx, urlActivity+activityID+"/hrTimeInZones", nil, nil)
	if err != nil {
		return "", nil, err
	}
	var zones []HRZoneRaw
	if err := json.Unmarshal([]byte(raw), &zones); err != nil {
		return raw, nil, fmt.Errorf("decode hr zones for %s: %w", activityID, err)
	}
	return raw, zones, nil
}

// Samples fetches the full metrics/samples payload of one activity.
func (c *Client) Samples(ctx context.Context, activityID string) (string, error) {
	return c.session.RequestString(ctx, urlActivity+activityID+"/details", nil, nil)
}

// Download fetches the primary data payload of an activity in the given
// format ("gpx", "tcx" or "original"). A 204 answer yields empty bytes.
func (c *Client) Download(ctx context.Context, format, activityID string) ([]byte, error) {
	var downloadURL string
	switch format {
	case "gpx":
		downloadURL = urlGPX + activityID + "?full=true"
	case "tcx":
		downloadURL = urlTCX + activityID + "?full=true"
	case "original":
		downloadURL = urlOriginal + activityID
	default:
		return nil, fmt.Errorf("unrecognized download format %q", format)
	}
	return c.session.Request(ctx, downloadURL, nil, nil)
}

// ActivityTypeProperties fetches the localization table for activity type
// display names.
func (c *Client) ActivityTypeProperties(ctx context.Context) (string, error) {
	return c.session.RequestString(ctx, urlActProps, nil, nil)
}

// EventTypeProperties fetches the localization table for event type
// display names.
func (c *Client) EventTypeProperties(ctx context.Context) (string, error) {
	return c.session.RequestString(ctx, urlEvtProps, nil, nil)
}
