package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muktihari/fit/decoder"

	"github.com/fitglue/gcexport/pkg/domain/activity"
	httputil "github.com/fitglue/gcexport/pkg/infrastructure/http"
	"github.com/fitglue/gcexport/pkg/integrations/garmin"
)

// exportDataFile writes the primary data file of an activity in the
// configured format. It reports false without touching anything when the
// file (or, for original downloads, an unzipped sibling) already exists.
func (e *Exporter) exportDataFile(ctx context.Context, act *garmin.ActivitySummary, detailsRaw string, fileTime *time.Time, appendDesc string) (bool, error) {
	dateTime := ""
	if act.StartTimeLocal != nil {
		dateTime = *act.StartTimeLocal
	}

	directory := e.opts.Directory
	if e.opts.Subdir != nil {
		directory = activity.ResolvePath(e.opts.Directory, *e.opts.Subdir, dateTime)
	}

	prefix := ""
	if e.opts.FilePrefix {
		r := strings.NewReplacer("-", "", ":", "")
		prefix = strings.ReplaceAll(r.Replace(dateTime), " ", "-") + "-"
	}

	activityID := act.ID()
	base := filepath.Join(directory, prefix+"activity_"+activityID+appendDesc)
	var dataFilename string
	switch e.opts.Format {
	case "gpx":
		dataFilename = base + ".gpx"
	case "tcx":
		dataFilename = base + ".tcx"
	case "original":
		dataFilename = base + ".zip"
	case "json":
		dataFilename = base + ".json"
	default:
		return false, fmt.Errorf("unrecognized format %q", e.opts.Format)
	}

	if e.store.Exists(dataFilename) {
		slog.Debug("Data file already exists", "id", activityID)
		fmt.Println("\tData file already exists. Skipping...")
		return false, nil
	}
	if e.opts.Format == "original" &&
		(e.store.Exists(base+".fit") || e.store.Exists(base+".gpx") || e.store.Exists(base+".tcx")) {
		slog.Debug("Original data file already exists", "id", activityID)
		fmt.Println("\tOriginal data file already exists. Skipping...")
		return false, nil
	}

	var data []byte
	if e.opts.Format == "json" {
		data = []byte(detailsRaw)
	} else {
		var err error
		data, err = e.svc.Download(ctx, e.opts.Format, activityID)
		if err != nil {
			// a 500 on TCX means the service has no TCX rendition for
			// this upload; an empty file records that
			if e.opts.Format == "tcx" && httputil.StatusOf(err) == 500 {
				slog.Info("Writing empty file since no TCX was generated for this activity", "id", activityID)
				data = nil
			} else {
				return false, fmt.Errorf("downloading %s for activity %s: %w", e.opts.Format, activityID, err)
			}
		}
	}

	if err := e.store.Write(dataFilename, data, fileTime); err != nil {
		return false, err
	}

	if e.opts.Format == "original" && e.opts.Unzip {
		if len(data) > 0 {
			if err := e.unzipOriginal(dataFilename, directory, prefix, appendDesc, fileTime); err != nil {
				return false, err
			}
		} else {
			fmt.Println("\tSkipping 0Kb zip file.")
		}
		if err := os.Remove(dataFilename); err != nil {
			return false, err
		}
	}
	return true, nil
}

// unzipOriginal extracts every entry of a downloaded original archive
// into the activity directory, normalizing names to the activity_<id>
// pattern. FIT entries get a header sanity check before extraction.
func (e *Exporter) unzipOriginal(zipPath, directory, prefix, appendDesc string, fileTime *time.Time) error {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", zipPath, err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		rc, err := entry.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}

		ext := filepath.Ext(entry.Name)
		// some 2020-era archives carry an _ACTIVITY suffix inside
		nameBase := strings.ReplaceAll(strings.TrimSuffix(entry.Name, ext), "_ACTIVITY", "")
		newName := filepath.Join(directory, prefix+"activity_"+nameBase+appendDesc+ext)

		if strings.EqualFold(ext, ".fit") {
			fileID, err := decoder.New(bytes.NewReader(content)).PeekFileId()
			if err != nil {
				slog.Warn("Archive entry is not a valid FIT file", "entry", entry.Name, "error", err)
			} else {
				slog.Debug("Extracted FIT file", "entry", entry.Name, "created", fileID.TimeCreated)
			}
		}

		slog.Debug("Extracting archive entry", "entry", entry.Name, "target", newName)
		if err := e.store.Write(newName, content, fileTime); err != nil {
			return err
		}
	}
	return nil
}
