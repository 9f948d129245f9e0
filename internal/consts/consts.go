// Package consts defines application-wide constants.
package consts

import "time"

const (
	// DefaultFetchTimeout bounds the socket for a single metadata fetch.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultProbeTimeout bounds the pre-flight connectivity dial.
	DefaultProbeTimeout = 2 * time.Second
	// DefaultProgressFreq is how often the download capability reports progress.
	DefaultProgressFreq = 100 * time.Millisecond
	// DefaultProgressInterval is the minimum wall time between progress updates
	// forwarded to the display.
	DefaultProgressInterval = 100 * time.Millisecond
	// DefaultCancelWait is how long cancellation waits for the download worker
	// to acknowledge before state is reset unconditionally.
	DefaultCancelWait = 3 * time.Second
	// DefaultShutdownWait bounds worker teardown on application exit.
	DefaultShutdownWait = 1 * time.Second
	// DefaultEventBuffer is the size of the orchestrator event queue.
	DefaultEventBuffer = 64
	// DefaultSimulateTime is the default time to simulate a download in the mock capability.
	DefaultSimulateTime = 1 * time.Second
)

// User-facing status texts.
const (
	// StatusFetching is shown while format metadata is being retrieved.
	StatusFetching = "Fetching formats…"
	// StatusFormatsLoaded closes the format listing once the catalog is ready.
	StatusFormatsLoaded = "Formats loaded. Pick one to download."
	// StatusStarting is shown when a download is accepted.
	StatusStarting = "Starting download…"
	// StatusDownloading is the fmt string for transfer progress, takes a percent.
	StatusDownloading = "Downloading… %d%%"
	// StatusMerging is shown while streams are combined into one container.
	StatusMerging = "Merging…"
	// StatusCompleted is shown when the file landed in the destination folder.
	StatusCompleted = "Download completed"
	// StatusCancelled is shown after a user-requested cancellation.
	StatusCancelled = "Download cancelled"
	// StatusFailed is the fmt string for a failed download, takes a message.
	StatusFailed = "Download failed: %s"
	// StatusMoveFailed is shown when the finished file could not be moved.
	StatusMoveFailed = "File move failed"
	// StatusNoFile is shown when there is no recorded file to open.
	StatusNoFile = "No downloaded file to open"
	// StatusOpenFailed is the fmt string shown when the OS file handoff fails.
	StatusOpenFailed = "Could not open file: %s"
	// StatusInvalidURL is shown when the pasted link is not a supported video URL.
	StatusInvalidURL = "Please enter a valid video URL"
)

// Open-file button labels per media type.
const (
	OpenLabelVideo = "Open Video"
	OpenLabelAudio = "Open Audio"
)

// Media backend identifiers.
const (
	// BackendYTdlp is the yt-dlp capability identifier.
	BackendYTdlp = "ytdlp"
	// BackendMock is the mock capability identifier for testing.
	BackendMock = "mock"
)
