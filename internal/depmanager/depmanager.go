// Package depmanager handles binary dependency management for external tools.
// It downloads yt-dlp and ffmpeg into a managed bins directory, or resolves
// system-installed copies when configured to.
package depmanager

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"velvetdown/internal/config"
	"velvetdown/internal/errs"

	"github.com/ulikunitz/xz"
)

// BinaryName represents the name of a binary dependency.
type BinaryName string

// Binary dependency names.
const (
	BinaryYTdlp   BinaryName = "yt-dlp"
	BinaryFFmpeg  BinaryName = "ffmpeg"
	BinaryFFprobe BinaryName = "ffprobe"
)

// Platform operating system names and architectures.
const (
	platformLinux   = "linux"
	platformWindows = "windows"
	archARM64       = "arm64"
	archAMD64       = "amd64"
)

// Internal constants for binary management.
const (
	// downloadTimeout is the HTTP client timeout for downloading binaries.
	downloadTimeout = 10 * time.Minute
	// filePermExecutable is the file permission for executable binaries.
	filePermExecutable = 0o755
)

// Platform represents the OS and architecture combination.
type Platform struct {
	OS   string
	Arch string
}

// String returns the platform string in format "os/arch".
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Manager manages binary dependencies.
type Manager struct {
	log      *slog.Logger
	cfg      *config.Config
	platform Platform
	client   *http.Client

	mu       sync.RWMutex
	binPaths map[BinaryName]string // binary name -> installed path
}

// New creates a new dependency manager.
func New(log *slog.Logger, cfg *config.Config) *Manager {
	return &Manager{
		log: log.With(slog.String("package", "depmanager")),
		cfg: cfg,
		platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		client: &http.Client{
			Timeout: downloadTimeout,
		},
		binPaths: make(map[BinaryName]string),
	}
}

// Start initializes the dependency manager.
func (m *Manager) Start(ctx context.Context) {
	if !m.cfg.DepManager.UseSystemBinaries {
		m.MustInstallAll(ctx)

		return
	}

	m.MustSetSystemBinaries(ctx)
}

// MustSetSystemBinaries sets system binaries if needed.
// Panics if yt-dlp cannot be resolved.
func (m *Manager) MustSetSystemBinaries(ctx context.Context) {
	if err := m.SetSystemBinaries(); err != nil {
		m.log.ErrorContext(ctx, "failed to set system binaries", slog.Any("error", err))
		panic(fmt.Sprintf("depmanager: failed to set system binaries: %v", err))
	}
}

// SetSystemBinaries resolves binaries from the system PATH. yt-dlp is
// required; a missing ffmpeg only disables merged downloads.
func (m *Manager) SetSystemBinaries() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	binaries := []BinaryName{BinaryYTdlp, BinaryFFmpeg, BinaryFFprobe}

	for _, binary := range binaries {
		path, err := exec.LookPath(string(binary))
		if err != nil {
			if binary == BinaryYTdlp {
				return fmt.Errorf("%w: %s not in system PATH: %w", errs.ErrBinaryNotFound, binary, err)
			}

			m.log.Warn("optional binary not found in system PATH; merged downloads unavailable",
				slog.String("binary", string(binary)))

			continue
		}

		m.binPaths[binary] = path
	}

	return nil
}

// MustInstallAll downloads all required binaries if needed.
// Panics if yt-dlp cannot be installed.
func (m *Manager) MustInstallAll(ctx context.Context) {
	if err := m.InstallAll(ctx); err != nil {
		m.log.ErrorContext(ctx, "failed to install all binaries", slog.Any("error", err))
		panic(fmt.Sprintf("depmanager: failed to install all binaries: %v", err))
	}
}

// InstallAll downloads missing binaries into the bins directory and prepends
// it to PATH so the capability resolves the managed copies first. An ffmpeg
// install failure is tolerated; merged downloads degrade to single streams.
func (m *Manager) InstallAll(ctx context.Context) error {
	log := m.log

	err := os.MkdirAll(m.cfg.DepManager.BinsDir, filePermExecutable)
	if err != nil {
		return fmt.Errorf("create bins directory: %w", err)
	}

	binaries := []BinaryName{BinaryYTdlp, BinaryFFmpeg}

	for _, binary := range binaries {
		if m.isBinaryExists(binary) {
			m.setInstalledPaths(binary)
			log.DebugContext(ctx, "binary already exists", slog.String("binary", string(binary)))

			continue
		}

		err = m.downloadAndInstall(ctx, binary)
		if err != nil {
			if binary == BinaryFFmpeg {
				log.WarnContext(ctx, "ffmpeg install failed; merged downloads unavailable", slog.Any("error", err))

				continue
			}

			return fmt.Errorf("download and install %s: %w", binary, err)
		}
	}

	log.InfoContext(ctx, "all binaries are installed", slog.Any("binaries", m.binPaths))

	return m.exportPath()
}

// exportPath prepends the bins directory to PATH so both yt-dlp and the
// ffmpeg it shells out to for merging resolve from the managed directory.
func (m *Manager) exportPath() error {
	path := m.cfg.DepManager.BinsDir + string(os.PathListSeparator) + os.Getenv("PATH")

	if err := os.Setenv("PATH", path); err != nil {
		return fmt.Errorf("prepend bins dir to PATH: %w", err)
	}

	return nil
}

// GetBinaryPath returns the full path to a binary.
//   - /home/user/ + binary => /home/user/binary
func (m *Manager) GetBinaryPath(name BinaryName) string {
	filename := string(name)
	if m.platform.OS == platformWindows {
		filename += ".exe"
	}

	return filepath.Join(m.cfg.DepManager.BinsDir, filename)
}

// GetInstalledPath returns the installed path for a binary, or empty if not installed.
func (m *Manager) GetInstalledPath(name BinaryName) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.binPaths[name]
}

// isBinaryExists checks that every file a binary provides exists with non-zero size.
func (m *Manager) isBinaryExists(name BinaryName) bool {
	for file := range m.getFilesNeeded(name) {
		info, err := os.Stat(m.GetBinaryPath(BinaryName(file)))
		if err != nil || info.Size() == 0 {
			return false
		}
	}

	return true
}

func (m *Manager) setInstalledPaths(name BinaryName) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for file := range m.getFilesNeeded(name) {
		m.binPaths[BinaryName(file)] = m.GetBinaryPath(BinaryName(file))
	}
}

// downloadAndInstall downloads and installs a dependency binary.
func (m *Manager) downloadAndInstall(ctx context.Context, name BinaryName) error {
	log := m.log.With(slog.String("binary", string(name)))

	url := m.getBinaryURL(name)
	if url == "" {
		return fmt.Errorf("%w: no download URL configured for %s on %s", errs.ErrUnsupportedPlatform, name, m.platform)
	}

	log.InfoContext(ctx, "downloading binary", slog.String("url", url))

	binPaths, err := m.downloadDependency(ctx, url, name)
	if err != nil {
		return fmt.Errorf("download dependency: %w", err)
	}

	err = m.makeExecutable(binPaths)
	if err != nil {
		return fmt.Errorf("make executable: %w", err)
	}

	m.setInstalledPaths(name)

	log.InfoContext(ctx, "binary installed successfully", slog.String("path", m.GetBinaryPath(name)))

	return nil
}

// makeExecutable sets the executable permission on a binary file.
func (m *Manager) makeExecutable(binPaths []string) error {
	for _, path := range binPaths {
		err := os.Chmod(path, filePermExecutable)
		if err != nil {
			return fmt.Errorf("chmod: %w", err)
		}
	}

	return nil
}

func (m *Manager) getBinaryURL(name BinaryName) string {
	cfg := m.cfg.DepManager

	switch name {
	case BinaryYTdlp:
		return m.selectURL(cfg.YTdlpLinuxARM64, cfg.YTdlpLinuxAMD64)
	case BinaryFFmpeg, BinaryFFprobe:
		return m.selectURL(cfg.FFmpegLinuxARM64, cfg.FFmpegLinuxAMD64)
	}

	return ""
}

func (m *Manager) selectURL(linuxARM64, linuxAMD64 string) string {
	key := m.platform.OS + "/" + m.platform.Arch

	switch key {
	case "linux/arm64":
		if linuxARM64 != "" {
			return linuxARM64
		}
	case "linux/amd64":
		if linuxAMD64 != "" {
			return linuxAMD64
		}
	}

	return linuxAMD64
}

// downloadDependency downloads and installs a binary dependency from a URL. Returns installed paths.
func (m *Manager) downloadDependency(ctx context.Context, url string, name BinaryName) ([]string, error) {
	binPath := m.GetBinaryPath(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	needsExtraction := strings.HasSuffix(url, ".zip") ||
		strings.HasSuffix(url, ".tar.xz") ||
		strings.HasSuffix(url, ".tar.gz")

	destDir := filepath.Dir(binPath)

	tmpFile, err := os.CreateTemp(destDir, "download-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()

	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	var installedPaths []string

	if needsExtraction {
		targets := m.getFilesNeeded(name)

		err = m.extractFiles(tmpPath, destDir, url, targets)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}

		for target := range targets {
			installedPaths = append(installedPaths, filepath.Join(destDir, target))
		}
	}

	if !needsExtraction {
		err = os.Rename(tmpPath, binPath)
		if err != nil {
			return nil, fmt.Errorf("rename: %w", err)
		}

		installedPaths = append(installedPaths, binPath)
	}

	return installedPaths, nil
}

// getFilesNeeded returns the set of files needed from an archive for a given binary.
func (m *Manager) getFilesNeeded(name BinaryName) map[string]struct{} {
	files := make(map[string]struct{})

	switch name {
	case BinaryFFmpeg:
		files["ffmpeg"] = struct{}{}
		files["ffprobe"] = struct{}{}
	default:
		files[string(name)] = struct{}{}
	}

	return files
}

func (m *Manager) extractFiles(archivePath, destDir, url string, targets map[string]struct{}) error {
	switch {
	case strings.HasSuffix(url, ".zip"):
		return m.extractFromZip(archivePath, destDir, targets)
	case strings.HasSuffix(url, ".tar.xz"):
		return m.extractFromTarXZ(archivePath, destDir, targets)
	case strings.HasSuffix(url, ".tar.gz"):
		return m.extractFromTarGZ(archivePath, destDir, targets)
	default:
		return fmt.Errorf("unsupported archive format")
	}
}

func (m *Manager) extractFromZip(zipPath, destDir string, targets map[string]struct{}) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	extracted := 0

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		filename := file.FileInfo().Name()
		if _, ok := targets[filename]; !ok {
			continue
		}

		fileReader, err := file.Open()
		if err != nil {
			return fmt.Errorf("open file in zip: %w", err)
		}

		destPath := filepath.Join(destDir, filename)

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
		if err != nil {
			fileReader.Close()

			return fmt.Errorf("create dest file: %w", err)
		}

		_, err = io.Copy(outFile, fileReader)
		fileReader.Close()
		outFile.Close()

		if err != nil {
			return fmt.Errorf("extract file: %w", err)
		}

		extracted++

		if extracted == len(targets) {
			return nil
		}
	}

	if extracted == 0 {
		return fmt.Errorf("no target files found in zip archive")
	}

	return nil
}

func (m *Manager) extractFromTarXZ(tarXZPath, destDir string, targets map[string]struct{}) error {
	file, err := os.Open(tarXZPath)
	if err != nil {
		return fmt.Errorf("open tar.xz: %w", err)
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	return m.extractTarSelected(xzReader, destDir, targets)
}

func (m *Manager) extractFromTarGZ(tarGZPath, destDir string, targets map[string]struct{}) error {
	file, err := os.Open(tarGZPath)
	if err != nil {
		return fmt.Errorf("open tar.gz: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzReader.Close()

	return m.extractTarSelected(gzReader, destDir, targets)
}

func (m *Manager) extractTarSelected(reader io.Reader, destDir string, targets map[string]struct{}) error {
	tarReader := tar.NewReader(reader)
	extracted := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		filename := filepath.Base(header.Name)
		if _, ok := targets[filename]; !ok {
			continue
		}

		destPath := filepath.Join(destDir, filename)

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
		if err != nil {
			return fmt.Errorf("create dest file: %w", err)
		}

		_, err = io.Copy(outFile, tarReader)
		outFile.Close()

		if err != nil {
			return fmt.Errorf("extract file: %w", err)
		}

		extracted++

		if extracted == len(targets) {
			return nil
		}
	}

	if extracted == 0 {
		return fmt.Errorf("no target files found in tar archive")
	}

	return nil
}
