// Package config loads LocalBoard settings from flags, the environment and an
// optional .env file. Explicit flags win over the environment, which wins
// over the defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"LocalBoard/internal/shape"
)

const (
	// CustomURLScheme prefixes share links handed to clients.
	CustomURLScheme = "localboard://"
	// DefaultPort is where the host listens.
	DefaultPort = 8888
	envPrefix   = "LOCALBOARD_"
)

// Role is host or client.
type Role string

const (
	RoleHost   Role = "host"
	RoleClient Role = "client"
)

// Config holds every runtime setting.
type Config struct {
	Role     Role
	HostAddr string // host:port taken from the share link, client only
	HostID   string // endpoint and owner token of the host
	ID       string
	Browse   bool // list hosts found over mDNS and exit

	Port      int
	Transport string // tcp or ws
	MDNS      bool

	GhostTTL     time.Duration
	CanvasWidth  int
	CanvasHeight int

	SnapshotBackend string // file, bolt, badger or redis
	SnapshotDir     string
	BoltPath        string
	BadgerDir       string
	RedisAddr       string

	LogLevel    string
	Development bool
}

// Canvas is the area shapes are kept inside when moved.
func (c Config) Canvas() shape.Rect {
	return shape.Rect{Width: c.CanvasWidth, Height: c.CanvasHeight}
}

func defaults() Config {
	return Config{
		Role:            RoleHost,
		HostID:          "host",
		Port:            DefaultPort,
		Transport:       "tcp",
		MDNS:            true,
		GhostTTL:        3 * time.Second,
		CanvasWidth:     1200,
		CanvasHeight:    900,
		SnapshotBackend: "file",
		SnapshotDir:     "snapshots",
		BoltPath:        "localboard.db",
		BadgerDir:       "localboard-badger",
		RedisAddr:       "localhost:6379",
		LogLevel:        "info",
	}
}

// Load parses args (without the program name). A positional localboard://
// link switches the role to client.
func Load(args []string) (Config, error) {
	cfg := defaults()

	fs := flag.NewFlagSet("localboard", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "Path to .env file")
	fs.StringVar(&cfg.ID, "id", cfg.ID, "Endpoint id (client default: a generated site id; host: same as -host-id)")
	fs.StringVar(&cfg.HostID, "host-id", cfg.HostID, "Endpoint id of the host")
	fs.BoolVar(&cfg.Browse, "browse", cfg.Browse, "List hosts advertised over mDNS and exit")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port the host listens on")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport: tcp or ws")
	fs.BoolVar(&cfg.MDNS, "mdns", cfg.MDNS, "Advertise the host over mDNS")
	fs.DurationVar(&cfg.GhostTTL, "ghost-ttl", cfg.GhostTTL, "How long unconfirmed edits stay ghosted")
	fs.IntVar(&cfg.CanvasWidth, "canvas-width", cfg.CanvasWidth, "Canvas width")
	fs.IntVar(&cfg.CanvasHeight, "canvas-height", cfg.CanvasHeight, "Canvas height")
	fs.StringVar(&cfg.SnapshotBackend, "snapshot", cfg.SnapshotBackend, "Snapshot store: file, bolt, badger or redis")
	fs.StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "Directory for file snapshots")
	fs.StringVar(&cfg.BoltPath, "bolt-path", cfg.BoltPath, "Database file for bolt snapshots")
	fs.StringVar(&cfg.BadgerDir, "badger-dir", cfg.BadgerDir, "Directory for badger snapshots")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for cloud snapshots")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Development, "dev", cfg.Development, "Human readable logs")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Load environment variables from .env file if it exists
	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if err := applyEnv(fs, explicit); err != nil {
		return Config{}, err
	}

	if link := fs.Arg(0); strings.HasPrefix(link, CustomURLScheme) {
		cfg.Role = RoleClient
		cfg.HostAddr = strings.TrimSuffix(strings.TrimPrefix(link, CustomURLScheme), "/")
	}
	if cfg.Role == RoleHost {
		// the host is known by one id; -id names it unless -host-id already does
		_, hostIDFromEnv := os.LookupEnv(envPrefix + "HOST_ID")
		hostIDSet := explicit["host-id"] || hostIDFromEnv
		switch {
		case cfg.ID == "":
		case !hostIDSet:
			cfg.HostID = cfg.ID
		case cfg.ID != cfg.HostID:
			return Config{}, fmt.Errorf("host id given twice: -id %q and -host-id %q", cfg.ID, cfg.HostID)
		}
		cfg.ID = cfg.HostID
	}

	return cfg, cfg.validate()
}

// applyEnv sets every flag not given on the command line from its
// LOCALBOARD_* variable, e.g. -ghost-ttl from LOCALBOARD_GHOST_TTL.
func applyEnv(fs *flag.FlagSet, explicit map[string]bool) error {
	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || explicit[f.Name] || f.Name == "env" {
			return
		}
		key := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v, ok := os.LookupEnv(key); ok {
			if setErr := f.Value.Set(v); setErr != nil {
				err = fmt.Errorf("%s: %w", key, setErr)
			}
		}
	})
	return err
}

func (c Config) validate() error {
	var errs []error
	if c.Transport != "tcp" && c.Transport != "ws" {
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	switch c.SnapshotBackend {
	case "file", "bolt", "badger", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown snapshot backend %q", c.SnapshotBackend))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("port out of range: "+strconv.Itoa(c.Port)))
	}
	if c.GhostTTL <= 0 {
		errs = append(errs, errors.New("ghost ttl must be positive"))
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		errs = append(errs, errors.New("canvas size must be positive"))
	}
	if c.HostID == "" {
		errs = append(errs, errors.New("host id must not be empty"))
	}
	if c.Role == RoleClient && c.ID != "" && c.ID == c.HostID {
		errs = append(errs, fmt.Errorf("client id %q is taken by the host", c.ID))
	}
	if c.Role == RoleClient && c.HostAddr == "" {
		errs = append(errs, errors.New("share link has no host address"))
	}
	return multierr.Combine(errs...)
}
