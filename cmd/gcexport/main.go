// Command gcexport exports activities from Garmin Connect: data files in
// the chosen format plus one summary row per activity in activities.csv.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/fitglue/gcexport/pkg/bootstrap"
	"github.com/fitglue/gcexport/pkg/export"
	httputil "github.com/fitglue/gcexport/pkg/infrastructure/http"
	"github.com/fitglue/gcexport/pkg/infrastructure/sentry"
	"github.com/fitglue/gcexport/pkg/infrastructure/storage"
	"github.com/fitglue/gcexport/pkg/integrations/garmin"
)

const version = "1.0.0"

const defaultTemplateName = "csv_header_default.properties"

// defaultTemplatePath prefers a column template in the working directory
// and falls back to the one shipped next to the binary, so an installed
// gcexport works from any directory.
func defaultTemplatePath() string {
	if _, err := os.Stat(defaultTemplateName); err == nil {
		return defaultTemplateName
	}
	exe, err := os.Executable()
	if err != nil {
		return defaultTemplateName
	}
	return filepath.Join(filepath.Dir(exe), defaultTemplateName)
}

type config struct {
	username        string
	password        string
	count           string
	external        string
	externalArgs    string
	format          string
	directory       string
	subdir          *string
	logPath         string
	unzip           bool
	originalTime    bool
	desc            *int
	template        string
	filePrefix      bool
	startActivityNo int
	exclude         string
	verbosity       int
}

func parseFlags(args []string) (*config, error) {
	fs := flag.NewFlagSet("gcexport", flag.ContinueOnError)
	c := &config{}

	defaultDir := "./" + time.Now().Format("2006-01-02") + "_garmin_connect_export"

	showVersion := fs.Bool("version", false, "print version and exit")
	fs.IntVar(&c.verbosity, "vv", 0, "verbosity level: 1 shows more output and saves intermediate files, 2 adds debug detail")
	fs.StringVar(&c.username, "u", "", "Garmin Connect username or email address")
	fs.StringVar(&c.username, "username", "", "Garmin Connect username or email address")
	fs.StringVar(&c.password, "p", "", "Garmin Connect password")
	fs.StringVar(&c.password, "password", "", "Garmin Connect password")
	fs.StringVar(&c.count, "c", "1", "number of recent activities to download, or 'all'")
	fs.StringVar(&c.count, "count", "1", "number of recent activities to download, or 'all'")
	fs.StringVar(&c.external, "e", "", "path to an external program to pass the CSV file to")
	fs.StringVar(&c.external, "external", "", "path to an external program to pass the CSV file to")
	fs.StringVar(&c.externalArgs, "a", "", "additional arguments to pass to the external program")
	fs.StringVar(&c.externalArgs, "args", "", "additional arguments to pass to the external program")
	fs.StringVar(&c.format, "f", "gpx", "export format: 'gpx', 'tcx', 'original' or 'json'")
	fs.StringVar(&c.format, "format", "gpx", "export format: 'gpx', 'tcx', 'original' or 'json'")
	fs.StringVar(&c.directory, "d", defaultDir, "the directory to export to")
	fs.StringVar(&c.directory, "directory", defaultDir, "the directory to export to")
	subdir := fs.String("s", "", "subdirectory for activity files, supports {YYYY} and {MM} placeholders")
	subdirLong := fs.String("subdir", "", "subdirectory for activity files, supports {YYYY} and {MM} placeholders")
	fs.StringVar(&c.logPath, "lp", "", "the directory to store log files (default: same as -d)")
	fs.StringVar(&c.logPath, "logpath", "", "the directory to store log files (default: same as -d)")
	fs.BoolVar(&c.unzip, "unzip", false, "unzip downloaded ZIP files (format 'original') and remove the archive")
	fs.BoolVar(&c.originalTime, "ot", false, "set downloaded (and unzipped) file times to the activity start time")
	fs.BoolVar(&c.originalTime, "originaltime", false, "set downloaded (and unzipped) file times to the activity start time")
	desc := fs.Int("desc", -1, "append the activity description to the file name, truncated to the given length (0: unlimited)")
	defaultTemplate := defaultTemplatePath()
	fs.StringVar(&c.template, "t", defaultTemplate, "template file with the desired CSV columns")
	fs.StringVar(&c.template, "template", defaultTemplate, "template file with the desired CSV columns")
	fs.BoolVar(&c.filePrefix, "fp", false, "prefix activity file names with the local start time")
	fs.BoolVar(&c.filePrefix, "fileprefix", false, "prefix activity file names with the local start time")
	fs.IntVar(&c.startActivityNo, "sa", 1, "1-based index of the first activity to export, skipping newer ones")
	fs.IntVar(&c.startActivityNo, "start_activity_no", 1, "1-based index of the first activity to export, skipping newer ones")
	fs.StringVar(&c.exclude, "ex", "", `JSON file with activity IDs to exclude, e.g. {"ids": ["6176888711"]}`)
	fs.StringVar(&c.exclude, "exclude", "", `JSON file with activity IDs to exclude, e.g. {"ids": ["6176888711"]}`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *showVersion {
		fmt.Println("gcexport", version)
		os.Exit(0)
	}

	switch c.format {
	case "gpx", "tcx", "original", "json":
	default:
		return nil, fmt.Errorf("unrecognized format %q", c.format)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			c.subdir = subdir
		case "subdir":
			c.subdir = subdirLong
		}
	})
	if *desc >= 0 {
		c.desc = desc
	}
	if c.logPath == "" {
		c.logPath = c.directory
	}
	return c, nil
}

// credentials resolves the login pair from flags, then the environment,
// then an interactive prompt.
func credentials(c *config) (garmin.Credentials, error) {
	username := c.username
	if username == "" {
		username = os.Getenv("GARMIN_USERNAME")
	}
	if username == "" {
		fmt.Print("Username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return garmin.Credentials{}, err
		}
		username = strings.TrimSpace(line)
	}

	password := c.password
	if password == "" {
		password = os.Getenv("GARMIN_PASSWORD")
	}
	if password == "" {
		fmt.Print("Password: ")
		if term.IsTerminal(int(os.Stdin.Fd())) {
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return garmin.Credentials{}, err
			}
			password = string(raw)
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return garmin.Credentials{}, err
			}
			password = strings.TrimSpace(line)
		}
	}
	return garmin.Credentials{Username: username, Password: password}, nil
}

func run(ctx context.Context, c *config) error {
	fmt.Println("Welcome to Garmin Connect Exporter")

	exclude := make(map[string]bool)
	if c.exclude != "" {
		exclude = export.ReadExclude(c.exclude)
	}

	store := &storage.FileStore{}
	if _, err := os.Stat(c.directory); err == nil {
		slog.Warn("Output directory already exists, skipping already-downloaded files and appending to the CSV file", "directory", c.directory)
	} else if err := os.MkdirAll(c.directory, 0o755); err != nil {
		return err
	}

	creds, err := credentials(c)
	if err != nil {
		return err
	}

	session, err := httputil.NewSession()
	if err != nil {
		return err
	}
	client := garmin.NewClient(session)

	fmt.Print("Connecting to Garmin Connect...")
	artifacts, err := client.Authenticate(ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Println("Done")
	if c.verbosity > 0 {
		if err := store.Write(filepath.Join(c.directory, "connect_response.html"), []byte(artifacts.ConnectResponse), nil); err != nil {
			return err
		}
		if err := store.Write(filepath.Join(c.directory, "login_response.html"), []byte(artifacts.LoginResponse), nil); err != nil {
			return err
		}
	}

	schema, err := export.LoadSchema(c.template)
	if err != nil {
		return err
	}
	csvPath := filepath.Join(c.directory, "activities.csv")
	csvExisted := store.Exists(csvPath)
	csvFile, err := os.OpenFile(csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	projector := export.NewProjector(csvFile, schema)
	if !csvExisted {
		if err := projector.WriteHeader(); err != nil {
			return err
		}
	}

	exporter := export.New(client, store, projector, export.Options{
		Directory:       c.directory,
		Subdir:          c.subdir,
		Format:          c.format,
		Count:           c.count,
		StartActivityNo: c.startActivityNo,
		Exclude:         exclude,
		Unzip:           c.unzip,
		OriginalTime:    c.originalTime,
		Desc:            c.desc,
		FilePrefix:      c.filePrefix,
		Verbosity:       c.verbosity,
	})
	if err := exporter.Run(ctx); err != nil {
		return err
	}
	if err := csvFile.Close(); err != nil {
		return err
	}

	if c.external != "" {
		fmt.Println("Open CSV output")
		fmt.Println(csvPath)
		cmd := exec.CommandContext(ctx, c.external, "--"+c.externalArgs, csvPath)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("external program failed: %w", err)
		}
	}
	return nil
}

func main() {
	// optional .env with GARMIN_USERNAME / GARMIN_PASSWORD / SENTRY_DSN
	_ = godotenv.Load()

	c, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	runID, closeLog, err := bootstrap.InitLogger(c.logPath, c.verbosity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot set up logging:", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.Info("Starting gcexport", "version", version)

	if err := sentry.Init(os.Getenv("SENTRY_DSN"), "gcexport@"+version); err != nil {
		slog.Warn("Error reporting disabled", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Interrupted")
			return
		}
		slog.Error("Export failed", "error", err)
		sentry.CaptureException(err, runID)
		sentry.Flush(2 * time.Second)
		closeLog()
		os.Exit(1)
	}
	fmt.Println("Done!")
}
