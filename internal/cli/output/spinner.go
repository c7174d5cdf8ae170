package output

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows indeterminate progress during a long step. On a
// terminal it animates; on piped output it degrades to plain lines so
// logs stay clean.
type Spinner struct {
	spin     *spinner.Spinner
	renderer *Renderer
	msg      string
}

// NewSpinner creates a spinner labeled msg. Call Start, then exactly
// one of Success or Fail.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	s := &Spinner{renderer: r, msg: msg}
	if r.EffectiveMode() == ModeText && r.isTTY {
		s.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.errOut))
		s.spin.Suffix = " " + msg
	}
	return s
}

// Start begins the animation, or prints the label once when piped.
func (s *Spinner) Start() {
	if s.spin == nil {
		s.renderer.Muted(s.msg + "...")
		return
	}
	s.spin.Start()
}

// Update swaps the live label while the spinner runs.
func (s *Spinner) Update(msg string) {
	s.msg = msg
	if s.spin != nil {
		s.spin.Suffix = " " + msg
	}
}

// Success stops the spinner and prints a confirmation line.
func (s *Spinner) Success(msg string) {
	s.stop()
	s.renderer.Success(msg)
}

// Fail stops the spinner and prints an error line.
func (s *Spinner) Fail(msg string) {
	s.stop()
	s.renderer.Error(msg)
}

func (s *Spinner) stop() {
	if s.spin != nil && s.spin.Active() {
		s.spin.Stop()
	}
}
