package display

import (
	"fmt"
	"io"
	"log/slog"

	"velvetdown/internal/consts"
	"velvetdown/internal/entity"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

const fullProgress = 100

// Terminal renders engine commands as terminal output with an ASCII progress
// bar.
type Terminal struct {
	log *slog.Logger
	out io.Writer
	bar *progressbar.ProgressBar
}

var _ Display = (*Terminal)(nil)

// NewTerminal creates a terminal display writing to stdout.
func NewTerminal(log *slog.Logger) *Terminal {
	return &Terminal{
		log: log.With(slog.String("package", "display")),
		out: ansi.NewAnsiStdout(),
	}
}

// ShowLoading prints the fetch status line.
func (t *Terminal) ShowLoading(message string) {
	t.breakBar()
	fmt.Fprintln(t.out, message)
}

// ShowError prints an error line.
func (t *Terminal) ShowError(message string) {
	t.breakBar()
	fmt.Fprintf(t.out, "error: %s\n", message)
}

// ShowFormats prints the numbered catalog listing. Numbering is continuous
// across the video and audio sections, matching what the input loop expects.
func (t *Terminal) ShowFormats(c entity.Catalog) {
	t.breakBar()

	if c.Empty() {
		fmt.Fprintln(t.out, "no downloadable formats")

		return
	}

	n := 0

	if len(c.Video) > 0 {
		fmt.Fprintln(t.out, "Video:")

		for _, v := range c.Video {
			n++
			fmt.Fprintf(t.out, "  [%d] %-6s %-5s %10s  %s\n", n, v.Bucket, v.Ext, v.SizeLabel, v.Note)
		}
	}

	if len(c.Audio) > 0 {
		fmt.Fprintln(t.out, "Audio:")

		for _, a := range c.Audio {
			n++
			fmt.Fprintf(t.out, "  [%d] %-6s %10s  %s\n", n, a.Ext, a.SizeLabel, a.Note)
		}
	}

	fmt.Fprintln(t.out, consts.StatusFormatsLoaded)
}

// UpdateProgress drives the progress bar. The bar is created lazily on the
// first update of a session and retired once it reaches full progress.
func (t *Terminal) UpdateProgress(percent int, status string) {
	if t.bar == nil {
		t.bar = progressbar.NewOptions(
			fullProgress,
			progressbar.OptionSetWriter(t.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetDescription(status),
		)
	} else {
		t.bar.Describe(status)
	}

	if err := t.bar.Set(percent); err != nil {
		t.log.Debug("progress bar update", slog.Any("error", err))
	}

	if percent >= fullProgress {
		t.breakBar()
	}
}

// SetURLInputEnabled has no terminal rendering; the input loop stays live.
func (t *Terminal) SetURLInputEnabled(enabled bool) {
	t.log.Debug("url input toggled", slog.Bool("enabled", enabled))
}

// SetCancelVisible prints the cancel hint when a download starts.
func (t *Terminal) SetCancelVisible(visible bool) {
	if visible {
		t.breakBar()
		fmt.Fprintln(t.out, "Press 'c' to cancel.")
	}
}

// SetOpenFileVisible prints the open-file hint once a download lands.
func (t *Terminal) SetOpenFileVisible(visible bool, label string) {
	if visible {
		t.breakBar()
		fmt.Fprintf(t.out, "Press 'o' to %s.\n", label)
	}
}

// Notify prints a prominent notice.
func (t *Terminal) Notify(message string) {
	t.breakBar()
	fmt.Fprintf(t.out, "!! %s\n", message)
}

// breakBar drops the active bar, terminating its line first, so following
// output starts clean.
func (t *Terminal) breakBar() {
	if t.bar == nil {
		return
	}

	t.bar = nil

	fmt.Fprintln(t.out)
}
