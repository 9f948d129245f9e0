package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"velvetdown/internal/classify"
	"velvetdown/internal/entity"
	"velvetdown/internal/media"
	"velvetdown/internal/worker"
)

type panicExtractor struct{}

func (panicExtractor) FetchInfo(context.Context, string, media.InfoOptions) (*media.Info, error) {
	panic("extractor exploded")
}

func TestFetchRunCatalogReady(t *testing.T) {
	m := media.NewMock(testLogger())
	m.Info = &media.Info{
		Title: "Clip",
		Formats: []entity.FormatRecord{
			{ID: "22", Ext: "mp4", Resolution: "1280x720", Vcodec: "avc1", Acodec: "mp4a"},
		},
	}

	sink := &fetchRecorder{}
	f := worker.NewFetch(testLogger(), m, sink, time.Second)
	f.Run(t.Context(), "https://www.youtube.com/watch?v=abc")

	if sink.calls != 1 {
		t.Fatalf("got %d sink calls, want 1", sink.calls)
	}

	if len(sink.records) != 1 || sink.records[0].ID != "22" {
		t.Errorf("CatalogReady records = %+v, want the mock format", sink.records)
	}

	select {
	case <-f.Done():
	default:
		t.Error("Done() not closed after run")
	}
}

func TestFetchRunFailures(t *testing.T) {
	tests := []struct {
		name     string
		infoErr  error
		info     *media.Info
		wantKind classify.Kind
	}{
		{
			name:     "classified capability error",
			infoErr:  errors.New("HTTP Error 403: Forbidden"),
			wantKind: classify.KindAuth,
		},
		{
			name:     "network error",
			infoErr:  errors.New("unable to download webpage: connection reset"),
			wantKind: classify.KindNetwork,
		},
		{
			name:     "empty format list",
			info:     &media.Info{Title: "Clip"},
			wantKind: classify.KindFormat,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := media.NewMock(testLogger())
			m.Info = tc.info
			m.InfoErr = tc.infoErr

			sink := &fetchRecorder{}
			f := worker.NewFetch(testLogger(), m, sink, time.Second)
			f.Run(t.Context(), "https://www.youtube.com/watch?v=abc")

			if sink.calls != 1 {
				t.Fatalf("got %d sink calls, want 1", sink.calls)
			}

			if sink.kind != tc.wantKind {
				t.Errorf("FetchFailed kind = %q, want %q", sink.kind, tc.wantKind)
			}

			if sink.message == "" {
				t.Error("FetchFailed message is empty")
			}
		})
	}
}

func TestFetchRunRecoversPanic(t *testing.T) {
	sink := &fetchRecorder{}
	f := worker.NewFetch(testLogger(), panicExtractor{}, sink, time.Second)
	f.Run(t.Context(), "https://www.youtube.com/watch?v=abc")

	if sink.calls != 1 {
		t.Fatalf("got %d sink calls, want 1", sink.calls)
	}

	if sink.kind != classify.KindGeneric {
		t.Errorf("FetchFailed kind = %q, want %q", sink.kind, classify.KindGeneric)
	}

	select {
	case <-f.Done():
	default:
		t.Error("Done() not closed after panic")
	}
}
