package display

import (
	"sync"

	"velvetdown/internal/entity"
)

// Recorded operation names.
const (
	OpShowLoading        = "show_loading"
	OpShowError          = "show_error"
	OpShowFormats        = "show_formats"
	OpUpdateProgress     = "update_progress"
	OpSetURLInputEnabled = "set_url_input_enabled"
	OpSetCancelVisible   = "set_cancel_visible"
	OpSetOpenFile        = "set_open_file_visible"
	OpNotify             = "notify"
)

// Command is one recorded display invocation.
type Command struct {
	Op      string
	Message string
	Percent int
	Enabled bool
	Label   string
	Catalog entity.Catalog
}

// Recorder captures the command stream for tests.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
}

var _ Display = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = append(r.commands, cmd)
}

// Commands returns a copy of everything recorded so far, in order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Command, len(r.commands))
	copy(out, r.commands)

	return out
}

// Filter returns the recorded commands with the given op, in order.
func (r *Recorder) Filter(op string) []Command {
	var out []Command

	for _, cmd := range r.Commands() {
		if cmd.Op == op {
			out = append(out, cmd)
		}
	}

	return out
}

// Last returns the most recent command with the given op.
func (r *Recorder) Last(op string) (Command, bool) {
	cmds := r.Filter(op)
	if len(cmds) == 0 {
		return Command{}, false
	}

	return cmds[len(cmds)-1], true
}

func (r *Recorder) ShowLoading(message string) {
	r.record(Command{Op: OpShowLoading, Message: message})
}

func (r *Recorder) ShowError(message string) {
	r.record(Command{Op: OpShowError, Message: message})
}

func (r *Recorder) ShowFormats(c entity.Catalog) {
	r.record(Command{Op: OpShowFormats, Catalog: c})
}

func (r *Recorder) UpdateProgress(percent int, status string) {
	r.record(Command{Op: OpUpdateProgress, Percent: percent, Message: status})
}

func (r *Recorder) SetURLInputEnabled(enabled bool) {
	r.record(Command{Op: OpSetURLInputEnabled, Enabled: enabled})
}

func (r *Recorder) SetCancelVisible(visible bool) {
	r.record(Command{Op: OpSetCancelVisible, Enabled: visible})
}

func (r *Recorder) SetOpenFileVisible(visible bool, label string) {
	r.record(Command{Op: OpSetOpenFile, Enabled: visible, Label: label})
}

func (r *Recorder) Notify(message string) {
	r.record(Command{Op: OpNotify, Message: message})
}
