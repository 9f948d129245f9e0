// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	App        App
	Probe      Probe
	Fetch      Fetch
	Download   Download
	Dir        Dir
	DepManager DepManager
	Metrics    Metrics
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"VELVETDOWN_APP_LOG_LEVEL" envDefault:"info"`
	// LogFormat selects the slog handler: "text" or "json".
	LogFormat string `env:"VELVETDOWN_APP_LOG_FORMAT" envDefault:"text"`
	// Backend selects the media capability: "ytdlp" or "mock".
	Backend string `env:"VELVETDOWN_APP_BACKEND" envDefault:"ytdlp"`
}

// Probe holds pre-flight connectivity probe configuration.
type Probe struct {
	// Address is a fixed, well-known reachable host on a standard port.
	Address string        `env:"VELVETDOWN_PROBE_ADDRESS" envDefault:"8.8.8.8:53"`
	Timeout time.Duration `env:"VELVETDOWN_PROBE_TIMEOUT" envDefault:"2s"`
}

// Fetch holds format fetch configuration.
type Fetch struct {
	SocketTimeout time.Duration `env:"VELVETDOWN_FETCH_SOCKET_TIMEOUT" envDefault:"10s"`
}

// Download holds download session configuration.
type Download struct {
	SocketTimeout time.Duration `env:"VELVETDOWN_DOWNLOAD_SOCKET_TIMEOUT" envDefault:"10s"`
	// MergeContainer is the output container requested when streams are merged.
	MergeContainer string `env:"VELVETDOWN_DOWNLOAD_MERGE_CONTAINER" envDefault:"mp4"`
	// ProgressInterval is the minimum wall time between display updates.
	ProgressInterval time.Duration `env:"VELVETDOWN_DOWNLOAD_PROGRESS_INTERVAL" envDefault:"100ms"`
	// CancelWait bounds how long a cancel request waits for worker acknowledgment.
	CancelWait time.Duration `env:"VELVETDOWN_DOWNLOAD_CANCEL_WAIT" envDefault:"3s"`
	// ShutdownWait bounds worker teardown on application exit.
	ShutdownWait time.Duration `env:"VELVETDOWN_DOWNLOAD_SHUTDOWN_WAIT" envDefault:"1s"`
	// EventBuffer is the size of the orchestrator event queue.
	EventBuffer int `env:"VELVETDOWN_DOWNLOAD_EVENT_BUFFER" envDefault:"64"`
}

// Dir holds directory paths for the destination folder and temp staging area.
type Dir struct {
	// Destination is where finished files land. Empty means <home>/Downloads.
	Destination string `env:"VELVETDOWN_DIR_DESTINATION" envDefault:""`
	// TempRoot is the staging area root. Empty means <home>/Downloads/VelvetTemp.
	// Each session stages into its own subdirectory underneath it.
	TempRoot string `env:"VELVETDOWN_DIR_TEMP_ROOT" envDefault:""`

	// see: https://github.com/yt-dlp/yt-dlp/blob/master/README.md#output-template
	FilenameTemplate string `env:"VELVETDOWN_DIR_FILENAME_TEMPLATE" envDefault:"%(title)s.%(ext)s"`
}

// SetDefaults resolves empty directories against the user home directory and
// converts both to absolute paths. The filename template is joined to the
// per-session staging directory at download time, not here.
func (c *Dir) SetDefaults() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("user home dir: %w", err)
	}

	if c.Destination == "" {
		c.Destination = filepath.Join(home, "Downloads")
	}

	if c.TempRoot == "" {
		c.TempRoot = filepath.Join(home, "Downloads", "VelvetTemp")
	}

	if c.Destination, err = filepath.Abs(c.Destination); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	if c.TempRoot, err = filepath.Abs(c.TempRoot); err != nil {
		return fmt.Errorf("temp root: %w", err)
	}

	return nil
}

// DepManager holds binary dependency management configuration.
type DepManager struct {
	// BinsDir is the directory where binaries are stored
	BinsDir string `env:"VELVETDOWN_DEPMANAGER_BINS_DIR" envDefault:"./bins"`
	// UseSystemBinaries indicates whether to use system-installed binaries or download them.
	UseSystemBinaries bool `env:"VELVETDOWN_DEPMANAGER_USE_SYSTEM_BINARIES" envDefault:"false"`

	// ffmpeg binary URLs per platform.
	FFmpegLinuxARM64 string `env:"VELVETDOWN_DEPMANAGER_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
	FFmpegLinuxAMD64 string `env:"VELVETDOWN_DEPMANAGER_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.tar.xz"`    //nolint:lll

	// yt-dlp binary URLs per platform.
	YTdlpLinuxARM64 string `env:"VELVETDOWN_DEPMANAGER_YTDLP_LINUX_ARM64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux_aarch64"` //nolint:lll
	YTdlpLinuxAMD64 string `env:"VELVETDOWN_DEPMANAGER_YTDLP_LINUX_AMD64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux"`         //nolint:lll
}

// SetAbsPaths converts the BinsDir path to an absolute path.
func (d *DepManager) SetAbsPaths() error {
	var err error
	if d.BinsDir, err = filepath.Abs(d.BinsDir); err != nil {
		return fmt.Errorf("bins dir: %w", err)
	}

	return nil
}

// Metrics holds the metrics endpoint configuration.
type Metrics struct {
	// Addr is the listen address for the Prometheus endpoint; empty disables it.
	Addr            string        `env:"VELVETDOWN_METRICS_ADDR"             envDefault:""`
	ShutdownTimeout time.Duration `env:"VELVETDOWN_METRICS_SHUTDOWN_TIMEOUT" envDefault:"3s"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetDefaults()
	if err != nil {
		return nil, fmt.Errorf("set dir defaults: %w", err)
	}

	err = cfg.DepManager.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set dep manager absolute paths: %w", err)
	}

	return cfg, nil
}
