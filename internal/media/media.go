// Package media wraps the yt-dlp capability behind narrow extraction and
// download interfaces.
package media

import (
	"context"
	"time"

	"velvetdown/internal/entity"
)

// Progress statuses reported by the download capability.
const (
	StatusDownloading    = "downloading"
	StatusFinished       = "finished"
	StatusError          = "error"
	StatusPostProcessing = "post_processing"
)

// Extractor lists what a URL offers without downloading anything.
type Extractor interface {
	FetchInfo(ctx context.Context, url string, opts InfoOptions) (*Info, error)
}

// Downloader transfers one selected format into a staging directory.
type Downloader interface {
	Download(ctx context.Context, url string, opts DownloadOptions) error
}

// InfoOptions bounds a metadata fetch.
type InfoOptions struct {
	NoPlaylist    bool
	SocketTimeout time.Duration
}

// DownloadOptions parameterizes a single download run.
type DownloadOptions struct {
	Format         string
	OutputTemplate string
	MergeContainer string // empty means no merge requested
	NoPlaylist     bool
	SocketTimeout  time.Duration
	OnProgress     func(ProgressEvent)
}

// ProgressEvent is one structured status callback from the download
// capability. Line mirrors the text yt-dlp itself prints for the same event,
// since downstream phase detection keys on its familiar markers.
type ProgressEvent struct {
	Status          string
	Percent         int
	Line            string
	DownloadedBytes int
	TotalBytes      int
	ETA             time.Duration
}

// Info is the metadata dump for a single media resource.
type Info struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Ext        string                `json:"ext"`
	Duration   float64               `json:"duration"`
	Uploader   string                `json:"uploader"`
	WebpageURL string                `json:"webpage_url"`
	Extractor  string                `json:"extractor"`
	Formats    []entity.FormatRecord `json:"formats"`
}
