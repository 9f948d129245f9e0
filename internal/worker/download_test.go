package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"velvetdown/internal/classify"
	"velvetdown/internal/entity"
	"velvetdown/internal/errs"
	"velvetdown/internal/media"
	"velvetdown/internal/worker"
)

func testParams(tempDir string, selection entity.Selection) worker.Params {
	return worker.Params{
		URL:            "https://www.youtube.com/watch?v=abc",
		Selection:      selection,
		TempDir:        tempDir,
		FilenameTmpl:   "%(title)s.%(ext)s",
		MergeContainer: "mp4",
		SocketTimeout:  time.Second,
	}
}

func TestDownloadRunCompletes(t *testing.T) {
	m := media.NewMock(testLogger())
	m.Script = []media.ProgressEvent{
		{Status: media.StatusDownloading, Percent: 40, Line: "[download] 40.0% of 10.00MiB at 1.0MiB/s ETA 00:06"},
		{Status: media.StatusDownloading, Percent: 80, Line: "[download] 80.0% of 10.00MiB at 1.0MiB/s ETA 00:02"},
		{Status: media.StatusFinished, Percent: 100, Line: "[download] Download completed. Processing..."},
	}
	m.Files = map[string]string{"clip.mp4": "media bytes"}

	dir := t.TempDir()
	sink := &downloadRecorder{}
	d := worker.NewDownload(testLogger(), m, sink, testParams(dir, entity.Selection{FormatCode: "137+140"}))

	d.Run(t.Context())

	if sink.terminals != 1 {
		t.Fatalf("got %d terminal calls, want 1", sink.terminals)
	}

	if sink.completed == "" {
		t.Fatalf("run did not complete: %+v", sink)
	}

	if got := sink.progress; len(got) != 3 {
		t.Fatalf("got %d progress calls, want 3", len(got))
	}

	if sink.progress[0].phase != entity.PhaseDownloading || sink.progress[0].percent != 40 {
		t.Errorf("progress[0] = %+v, want downloading at 40", sink.progress[0])
	}

	if sink.progress[2].phase != entity.PhaseMerging {
		t.Errorf("progress[2] = %+v, want merging after the finished marker", sink.progress[2])
	}

	select {
	case <-d.Done():
	default:
		t.Error("Done() not closed after run")
	}
}

func TestDownloadRunMergeIsOneWay(t *testing.T) {
	m := media.NewMock(testLogger())
	m.Script = []media.ProgressEvent{
		{Status: media.StatusDownloading, Percent: 50, Line: "[download] 50.0% of 10.00MiB at 1.0MiB/s ETA 00:05"},
		{Status: media.StatusDownloading, Percent: 98, Line: `[ffmpeg] Merging formats into "clip.mp4"`},
		{Status: media.StatusDownloading, Percent: 99, Line: "[download] 99.0% of 10.00MiB at 1.0MiB/s ETA 00:01"},
	}
	m.Files = map[string]string{"clip.mp4": "media bytes"}

	sink := &downloadRecorder{}
	d := worker.NewDownload(testLogger(), m, sink, testParams(t.TempDir(), entity.Selection{FormatCode: "137+140"}))

	d.Run(t.Context())

	if len(sink.progress) != 3 {
		t.Fatalf("got %d progress calls, want 3", len(sink.progress))
	}

	if sink.progress[0].phase != entity.PhaseDownloading {
		t.Errorf("progress[0].phase = %q, want downloading", sink.progress[0].phase)
	}

	for _, call := range sink.progress[1:] {
		if call.phase != entity.PhaseMerging {
			t.Errorf("progress after merge line = %+v, want merging phase", call)
		}
	}
}

func TestDownloadRunCancelBeforeProgress(t *testing.T) {
	m := media.NewMock(testLogger())
	m.Script = []media.ProgressEvent{
		{Status: media.StatusDownloading, Percent: 10, Line: "[download] 10.0%"},
		{Status: media.StatusDownloading, Percent: 20, Line: "[download] 20.0%"},
	}
	m.Files = map[string]string{"clip.mp4": "media bytes"}

	sink := &downloadRecorder{}
	d := worker.NewDownload(testLogger(), m, sink, testParams(t.TempDir(), entity.Selection{FormatCode: "18"}))

	d.Cancel()
	d.Run(t.Context())

	if !sink.cancelled {
		t.Fatalf("run not reported as cancelled: %+v", sink)
	}

	if sink.terminals != 1 {
		t.Errorf("got %d terminal calls, want 1", sink.terminals)
	}

	if len(sink.progress) != 0 {
		t.Errorf("got %d progress calls after early cancel, want 0", len(sink.progress))
	}
}

type cancellingSink struct {
	*downloadRecorder
	after  int
	cancel func()
}

func (s *cancellingSink) Progress(phase entity.Phase, percent int, line string) {
	s.downloadRecorder.Progress(phase, percent, line)

	if len(s.downloadRecorder.progress) >= s.after {
		s.cancel()
	}
}

func TestDownloadRunCancelMidTransfer(t *testing.T) {
	m := media.NewMock(testLogger())
	m.Script = []media.ProgressEvent{
		{Status: media.StatusDownloading, Percent: 10, Line: "[download] 10.0%"},
		{Status: media.StatusDownloading, Percent: 20, Line: "[download] 20.0%"},
		{Status: media.StatusDownloading, Percent: 30, Line: "[download] 30.0%"},
	}
	m.Files = map[string]string{"clip.mp4": "media bytes"}

	rec := &downloadRecorder{}
	sink := &cancellingSink{downloadRecorder: rec, after: 1}
	d := worker.NewDownload(testLogger(), m, sink, testParams(t.TempDir(), entity.Selection{FormatCode: "18"}))
	sink.cancel = d.Cancel

	d.Run(t.Context())

	if !rec.cancelled {
		t.Fatalf("run not reported as cancelled: %+v", rec)
	}

	if len(rec.progress) != 1 {
		t.Errorf("got %d progress calls, want 1 before the cancel took effect", len(rec.progress))
	}
}

func TestDownloadRunFailureClassified(t *testing.T) {
	m := media.NewMock(testLogger())
	m.Script = []media.ProgressEvent{
		{Status: media.StatusDownloading, Percent: 10, Line: "[download] 10.0%"},
	}
	m.DownloadErr = errors.New("HTTP Error 429: Too Many Requests")

	sink := &downloadRecorder{}
	d := worker.NewDownload(testLogger(), m, sink, testParams(t.TempDir(), entity.Selection{FormatCode: "18"}))

	d.Run(t.Context())

	if sink.terminals != 1 {
		t.Fatalf("got %d terminal calls, want 1", sink.terminals)
	}

	if sink.kind != classify.KindRateLimit {
		t.Errorf("Failed kind = %q, want %q", sink.kind, classify.KindRateLimit)
	}

	if sink.cancelled {
		t.Error("failure misreported as cancellation")
	}
}

func TestDownloadRunNoOutputFile(t *testing.T) {
	m := media.NewMock(testLogger())
	m.Script = []media.ProgressEvent{
		{Status: media.StatusFinished, Percent: 100, Line: "[download] Download completed. Processing..."},
	}

	sink := &downloadRecorder{}
	d := worker.NewDownload(testLogger(), m, sink, testParams(t.TempDir(), entity.Selection{FormatCode: "18"}))

	d.Run(t.Context())

	if sink.kind != classify.KindGeneric {
		t.Errorf("Failed kind = %q, want %q", sink.kind, classify.KindGeneric)
	}

	if sink.message != errs.ErrNoOutputFile.Error() {
		t.Errorf("Failed message = %q, want %q", sink.message, errs.ErrNoOutputFile.Error())
	}
}

type optsRecorder struct {
	opts media.DownloadOptions
}

func (o *optsRecorder) Download(_ context.Context, _ string, opts media.DownloadOptions) error {
	o.opts = opts

	return errors.New("stop here")
}

func TestDownloadRunMergeContainer(t *testing.T) {
	tests := []struct {
		name      string
		selection entity.Selection
		want      string
	}{
		{name: "combined format code", selection: entity.Selection{FormatCode: "137+140"}, want: "mp4"},
		{name: "audio pick", selection: entity.Selection{FormatCode: "140", Audio: true}, want: "mp4"},
		{name: "single progressive format", selection: entity.Selection{FormatCode: "18"}, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &optsRecorder{}
			d := worker.NewDownload(testLogger(), rec, &downloadRecorder{}, testParams(t.TempDir(), tc.selection))

			d.Run(t.Context())

			if rec.opts.MergeContainer != tc.want {
				t.Errorf("MergeContainer = %q, want %q", rec.opts.MergeContainer, tc.want)
			}

			if !rec.opts.NoPlaylist {
				t.Error("NoPlaylist not requested")
			}
		})
	}
}
