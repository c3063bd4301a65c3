package session

import "time"

// Phase is the pomodoro timer's current mode.
type Phase string

const (
	PhaseIdle  Phase = "idle"
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

// Signal reports a phase boundary crossed by a Tick.
type Signal string

const (
	SignalNone          Signal = ""
	SignalFocusComplete Signal = "focus_complete"
	SignalBreakComplete Signal = "break_complete"
)

// PomodoroState is a point-in-time snapshot of the timer.
type PomodoroState struct {
	Phase        Phase      `json:"phase"`
	Running      bool       `json:"running"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	FocusMinutes int        `json:"focusMinutes"`
	BreakMinutes int        `json:"breakMinutes"`
}

// Pomodoro is a deadline-driven focus/break countdown. It holds no goroutine
// and no clock of its own: the caller feeds it the current time through Tick
// at whatever cadence it likes, and the outcome depends only on the times
// passed in, never on how often Tick runs.
type Pomodoro struct {
	phase    Phase
	deadline time.Time
	focus    time.Duration
	brk      time.Duration
}

// NewPomodoro builds an idle timer with the given phase lengths in minutes.
func NewPomodoro(focusMinutes, breakMinutes int) *Pomodoro {
	return &Pomodoro{
		phase: PhaseIdle,
		focus: time.Duration(focusMinutes) * time.Minute,
		brk:   time.Duration(breakMinutes) * time.Minute,
	}
}

// Start begins a focus phase. Starting an already-running timer is a no-op.
func (p *Pomodoro) Start(now time.Time) {
	if p.phase != PhaseIdle {
		return
	}
	p.phase = PhaseFocus
	p.deadline = now.Add(p.focus)
}

// Configure sets the phase lengths. Ignored while the timer is running so a
// countdown in progress keeps its deadline.
func (p *Pomodoro) Configure(focusMinutes, breakMinutes int) {
	if p.phase != PhaseIdle {
		return
	}
	if focusMinutes > 0 {
		p.focus = time.Duration(focusMinutes) * time.Minute
	}
	if breakMinutes > 0 {
		p.brk = time.Duration(breakMinutes) * time.Minute
	}
}

// Tick advances the state machine. When the deadline has passed, focus rolls
// into a break and a finished break returns to idle; each boundary is
// reported exactly once through the returned signal.
func (p *Pomodoro) Tick(now time.Time) Signal {
	if p.phase == PhaseIdle || now.Before(p.deadline) {
		return SignalNone
	}
	switch p.phase {
	case PhaseFocus:
		p.phase = PhaseBreak
		p.deadline = now.Add(p.brk)
		return SignalFocusComplete
	case PhaseBreak:
		p.phase = PhaseIdle
		p.deadline = time.Time{}
		return SignalBreakComplete
	}
	return SignalNone
}

// Reset returns the timer to idle from any state.
func (p *Pomodoro) Reset() {
	p.phase = PhaseIdle
	p.deadline = time.Time{}
}

// State snapshots the timer. The deadline is nil exactly when not running.
func (p *Pomodoro) State() PomodoroState {
	st := PomodoroState{
		Phase:        p.phase,
		Running:      p.phase != PhaseIdle,
		FocusMinutes: int(p.focus / time.Minute),
		BreakMinutes: int(p.brk / time.Minute),
	}
	if st.Running {
		d := p.deadline
		st.Deadline = &d
	}
	return st
}
