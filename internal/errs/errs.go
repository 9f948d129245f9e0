// Package errs defines common error variables used across the application.
package errs

import "errors"

var (
	// ErrShuttingDown indicates that the engine is closing and cannot accept new work.
	ErrShuttingDown = errors.New("engine is shutting down")
)

// Request validation errors.
var (
	// ErrInvalidURL indicates that the URL is not a supported video link.
	ErrInvalidURL = errors.New("invalid or unsupported url")
	// ErrNoConnectivity indicates that the pre-flight connectivity probe failed.
	ErrNoConnectivity = errors.New("no internet connection")
	// ErrNoSelection indicates that no format was selected for download.
	ErrNoSelection = errors.New("no format selected")
)

// Session errors.
var (
	// ErrFetchInFlight indicates that a format fetch is already running.
	ErrFetchInFlight = errors.New("format fetch already in progress")
	// ErrDownloadInFlight indicates that a download is already running.
	ErrDownloadInFlight = errors.New("download already in progress")
	// ErrDownloadCancelled marks a run aborted by user request. A cancelled
	// download is never reported as failed.
	ErrDownloadCancelled = errors.New("download cancelled")
	// ErrNoOutputFile indicates that no usable file was left in the staging
	// directory after the capability finished.
	ErrNoOutputFile = errors.New("no output file found after download")
	// ErrNoValidOutputFile indicates that staging entries existed but none
	// could be sized.
	ErrNoValidOutputFile = errors.New("no valid output file found")
	// ErrNoFormats indicates that the source offered nothing downloadable.
	ErrNoFormats = errors.New("no downloadable formats found")
	// ErrNoDownloadedFile indicates that there is no recorded file to open.
	ErrNoDownloadedFile = errors.New("no downloaded file")
)

// Dependency errors.
var (
	// ErrBinaryNotFound indicates that a required binary was not found.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform indicates that the current platform is not supported.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
