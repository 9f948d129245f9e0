// Package worker runs the background fetch and download tasks. Workers never
// touch session state directly: each one reports through a sink interface
// handed over at construction, and makes exactly one terminal sink call per
// run.
package worker

import (
	"os"
	"path/filepath"
	"strings"

	"velvetdown/internal/classify"
	"velvetdown/internal/entity"
	"velvetdown/internal/errs"
)

// FetchSink receives the terminal result of a format fetch.
type FetchSink interface {
	CatalogReady(records []entity.FormatRecord)
	FetchFailed(kind classify.Kind, message string)
}

// DownloadSink receives progress and the terminal result of a download run.
// Progress calls arrive on the capability's goroutine; terminal calls on the
// worker's own.
type DownloadSink interface {
	Progress(phase entity.Phase, percent int, line string)
	Completed(outputPath string)
	Cancelled()
	Failed(kind classify.Kind, message string)
}

// Suffixes of incomplete-transfer leftovers in the staging directory.
var partialSuffixes = []string{".part", ".ytdl", ".tmp", ".temp"}

// LargestOutput picks the output file from a staging directory: the biggest
// regular file that is not an incomplete-transfer leftover. The capability
// may drop sidecar files next to the merged artifact; size identifies the
// real output.
func LargestOutput(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.ErrNoOutputFile
	}

	var candidates []string

	for _, entry := range entries {
		if entry.IsDir() || isPartial(entry.Name()) {
			continue
		}

		candidates = append(candidates, entry.Name())
	}

	if len(candidates) == 0 {
		return "", errs.ErrNoOutputFile
	}

	var (
		best     string
		bestSize int64 = -1
	)

	for _, name := range candidates {
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		if info.Size() > bestSize {
			best = path
			bestSize = info.Size()
		}
	}

	if best == "" {
		return "", errs.ErrNoValidOutputFile
	}

	return best, nil
}

func isPartial(name string) bool {
	lower := strings.ToLower(name)

	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}
