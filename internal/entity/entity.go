// Package entity defines the core entities used in the application.
package entity

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Phase represents the lifecycle stage of a download session.
type Phase string

const (
	// PhaseIdle indicates that no session is active.
	PhaseIdle Phase = "idle"
	// PhaseFetching indicates that format metadata is being retrieved.
	PhaseFetching Phase = "fetching"
	// PhaseReady indicates that a catalog is shown and a download may start.
	PhaseReady Phase = "ready"
	// PhaseStarting indicates that a download is accepted and about to start.
	PhaseStarting Phase = "starting"
	// PhaseDownloading indicates that media bytes are being transferred.
	PhaseDownloading Phase = "downloading"
	// PhaseMerging indicates that separate streams are being combined into one container.
	PhaseMerging Phase = "merging"
	// PhaseCompleted indicates that the session finished successfully.
	PhaseCompleted Phase = "completed"
	// PhaseFailed indicates that the session ended with an error.
	PhaseFailed Phase = "failed"
	// PhaseCancelled indicates that the session was cancelled by the user.
	PhaseCancelled Phase = "cancelled"
)

// CanStart reports whether a new download may begin from this phase.
func (p Phase) CanStart() bool {
	switch p {
	case PhaseIdle, PhaseReady, PhaseCompleted, PhaseFailed, PhaseCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the phase ends a session.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseFailed, PhaseCancelled:
		return true
	default:
		return false
	}
}

const (
	unknownSizeLabel = "N/A"
	mib              = 1024 * 1024
)

// FormatRecord is one encoding/container variant of a media resource, as
// reported by the extraction capability. Immutable once produced.
type FormatRecord struct {
	ID             string `json:"format_id"`
	Ext            string `json:"ext"`
	Resolution     string `json:"resolution"`
	Filesize       int64  `json:"filesize"`
	FilesizeApprox int64  `json:"filesize_approx"`
	Note           string `json:"format_note"`
	Vcodec         string `json:"vcodec"`
	Acodec         string `json:"acodec"`
	Protocol       string `json:"protocol"`
}

// HasVideo reports whether the record carries a video stream.
func (f FormatRecord) HasVideo() bool {
	return f.Vcodec != "" && f.Vcodec != "none"
}

// HasAudio reports whether the record carries an audio stream.
func (f FormatRecord) HasAudio() bool {
	return f.Acodec != "" && f.Acodec != "none"
}

// SizeBytes returns the best known byte size. Unknown sizes are 0 and are
// used for comparison only, never displayed as a number.
func (f FormatRecord) SizeBytes() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}

	if f.FilesizeApprox > 0 {
		return f.FilesizeApprox
	}

	return 0
}

// SizeLabel renders the record's byte size for display.
func (f FormatRecord) SizeLabel() string {
	return SizeLabel(f.SizeBytes())
}

// SizeLabel renders a byte count in MiB with two decimals, "N/A" when unknown.
func SizeLabel(size int64) string {
	if size <= 0 {
		return unknownSizeLabel
	}

	return fmt.Sprintf("%.2fMiB", float64(size)/mib)
}

// VideoFormat is a classified combined (video+audio) download option.
type VideoFormat struct {
	Bucket     string // one of "1080p", "720p", "480p", "144p"
	FormatCode string
	Ext        string
	Size       int64
	SizeLabel  string
	Note       string
}

// AudioFormat is a classified audio-only download option.
type AudioFormat struct {
	Ext        string
	FormatCode string
	Size       int64
	SizeLabel  string
	Note       string
}

// Catalog is the classified format listing offered to the user. Video entries
// are ordered by descending resolution bucket, audio entries in the order
// their extensions were first retained.
type Catalog struct {
	Video []VideoFormat
	Audio []AudioFormat
}

// Empty reports whether the catalog offers nothing to download.
func (c Catalog) Empty() bool {
	return len(c.Video) == 0 && len(c.Audio) == 0
}

// Selection is the user's chosen download option.
type Selection struct {
	FormatCode string
	Audio      bool
	Label      string
}

// NeedsMerge reports whether the download requires combining streams into a
// single container: combined format codes carry a "+" join marker, and audio
// picks always go through the merge step.
func (s Selection) NeedsMerge() bool {
	return strings.Contains(s.FormatCode, "+") || s.Audio
}

// Session is one download attempt. Exactly one session is active at a time;
// the orchestrator is its sole mutator.
type Session struct {
	ID         string
	URL        string
	Selection  Selection
	Phase      Phase
	Percent    int // last displayed percent, monotonic within the session
	TempDir    string
	DestDir    string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (s Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", s.ID),
		slog.String("url", s.URL),
		slog.String("format", s.Selection.FormatCode),
		slog.Bool("audio", s.Selection.Audio),
		slog.String("phase", string(s.Phase)),
		slog.Int("percent", s.Percent),
		slog.String("temp_dir", s.TempDir),
		slog.String("output", s.OutputPath),
	)
}
