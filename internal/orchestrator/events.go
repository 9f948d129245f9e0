package orchestrator

import (
	"velvetdown/internal/classify"
	"velvetdown/internal/entity"
	"velvetdown/internal/worker"
)

// Events carried on the engine queue. Worker-originated events carry the ID
// of the session they belong to; the loop drops anything stale.
type event any

type fetchRequested struct {
	url string
}

type catalogReady struct {
	sessionID string
	records   []entity.FormatRecord
}

type fetchFailed struct {
	sessionID string
	kind      classify.Kind
	message   string
}

type downloadRequested struct {
	selection entity.Selection
}

type downloadProgress struct {
	sessionID string
	phase     entity.Phase
	percent   int
	line      string
}

type downloadCompleted struct {
	sessionID string
	path      string
}

type downloadCancelled struct {
	sessionID string
}

type downloadFailed struct {
	sessionID string
	kind      classify.Kind
	message   string
}

// cancelDone finalizes a cancel after the bounded worker join, whether or not
// the worker acknowledged in time.
type cancelDone struct {
	sessionID string
}

type openRequested struct{}

type openFailed struct {
	message string
}

// destinationChanged carries the new destination folder; an empty dir resets
// to the configured default.
type destinationChanged struct {
	dir string
}

// fetchSink translates fetch worker callbacks into queue events bound to one
// session.
type fetchSink struct {
	eng       *engine
	sessionID string
}

var _ worker.FetchSink = (*fetchSink)(nil)

func (s *fetchSink) CatalogReady(records []entity.FormatRecord) {
	s.eng.post(catalogReady{sessionID: s.sessionID, records: records})
}

func (s *fetchSink) FetchFailed(kind classify.Kind, message string) {
	s.eng.post(fetchFailed{sessionID: s.sessionID, kind: kind, message: message})
}

// downloadSink translates download worker callbacks into queue events bound
// to one session.
type downloadSink struct {
	eng       *engine
	sessionID string
}

var _ worker.DownloadSink = (*downloadSink)(nil)

func (s *downloadSink) Progress(phase entity.Phase, percent int, line string) {
	s.eng.post(downloadProgress{sessionID: s.sessionID, phase: phase, percent: percent, line: line})
}

func (s *downloadSink) Completed(outputPath string) {
	s.eng.post(downloadCompleted{sessionID: s.sessionID, path: outputPath})
}

func (s *downloadSink) Cancelled() {
	s.eng.post(downloadCancelled{sessionID: s.sessionID})
}

func (s *downloadSink) Failed(kind classify.Kind, message string) {
	s.eng.post(downloadFailed{sessionID: s.sessionID, kind: kind, message: message})
}
