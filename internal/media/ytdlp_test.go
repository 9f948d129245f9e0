package media_test

import (
	_ "embed"
	"errors"
	"testing"

	"velvetdown/internal/errs"
	"velvetdown/internal/media"
)

//go:embed testdata/info_single_json.json
var infoSingleJSON string

func TestParseInfo(t *testing.T) {
	tests := []struct {
		name        string
		stdout      string
		wantID      string
		wantTitle   string
		wantFormats int
		wantErr     bool
	}{
		{
			name:        "single JSON dump",
			stdout:      infoSingleJSON,
			wantID:      "dQw4w9WgXcQ",
			wantTitle:   "Never Gonna Give You Up",
			wantFormats: 8,
		},
		{
			name:        "stray lines around the dump",
			stdout:      "deleting cookie jar\n\n{\"id\": \"abc\", \"title\": \"Clip\", \"formats\": [{\"format_id\": \"18\"}]}\ndone\n",
			wantID:      "abc",
			wantTitle:   "Clip",
			wantFormats: 1,
		},
		{
			name:    "no JSON at all",
			stdout:  "WARNING: something\nnothing here\n",
			wantErr: true,
		},
		{
			name:    "empty stdout",
			stdout:  "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, gotErr := media.ParseInfo(tc.stdout)
			if gotErr != nil {
				if !tc.wantErr {
					t.Errorf("ParseInfo() failed: %v", gotErr)
				}
				if !errors.Is(gotErr, errs.ErrNoFormats) {
					t.Errorf("ParseInfo() error = %v, want %v in chain", gotErr, errs.ErrNoFormats)
				}

				return
			}

			if tc.wantErr {
				t.Fatal("ParseInfo() succeeded unexpectedly")
			}

			if got.ID != tc.wantID {
				t.Errorf("got ID = %q, want %q", got.ID, tc.wantID)
			}

			if got.Title != tc.wantTitle {
				t.Errorf("got Title = %q, want %q", got.Title, tc.wantTitle)
			}

			if len(got.Formats) != tc.wantFormats {
				t.Errorf("got %d formats, want %d", len(got.Formats), tc.wantFormats)
			}
		})
	}
}

func TestParseInfoFormatFields(t *testing.T) {
	info, err := media.ParseInfo(infoSingleJSON)
	if err != nil {
		t.Fatalf("ParseInfo() failed: %v", err)
	}

	var found bool

	for _, rec := range info.Formats {
		if rec.ID != "22" {
			continue
		}

		found = true

		if rec.Ext != "mp4" {
			t.Errorf("got Ext = %q, want %q", rec.Ext, "mp4")
		}

		if rec.Resolution != "1280x720" {
			t.Errorf("got Resolution = %q, want %q", rec.Resolution, "1280x720")
		}

		if rec.SizeBytes() != 29510000 {
			t.Errorf("got SizeBytes() = %d, want approximate size fallback", rec.SizeBytes())
		}

		if !rec.HasVideo() || !rec.HasAudio() {
			t.Errorf("got HasVideo() = %v, HasAudio() = %v, want combined stream", rec.HasVideo(), rec.HasAudio())
		}
	}

	if !found {
		t.Fatal("format 22 missing from parsed dump")
	}
}
