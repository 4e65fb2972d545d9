package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
	"github.com/san-kum/gravkern/internal/sim"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	trailCapacity   = 2000
	frameRate       = 30
	secondsPerDay   = 86400
)

type TickMsg time.Time

// leapEvent is one message from a background run: either a committed leap
// or, with done set, the end of the run.
type leapEvent struct {
	progress   sim.Progress
	positions  []r3.Vec
	velocities []r3.Vec
	done       bool
	err        error
}

// runner drives Simulator.RunWithCallback on its own goroutine. Each leap
// blocks until the view takes it, so the view sets the pace.
type runner struct {
	events chan leapEvent
	cancel context.CancelFunc
}

func startRunner(s *sim.Simulator, e *dynamo.Ensemble, cfg dynamo.Config) *runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{events: make(chan leapEvent), cancel: cancel}
	go func() {
		err := s.RunWithCallback(ctx, e, cfg, func(p sim.Progress) bool {
			ev := leapEvent{
				progress:   p,
				positions:  slices.Clone(p.Ensemble.Positions),
				velocities: slices.Clone(p.Ensemble.Velocities),
			}
			select {
			case r.events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		})
		select {
		case r.events <- leapEvent{done: true, err: err}:
		case <-ctx.Done():
		}
	}()
	return r
}

// LiveModel steps an ensemble one leap per frame and draws it.
type LiveModel struct {
	name      string
	simulator *sim.Simulator
	run       *runner
	cfg       dynamo.Config

	initial *dynamo.Ensemble
	ens     *dynamo.Ensemble
	e0      float64

	t        float64
	leap     int
	steps    int
	halted   bool
	finished bool
	err      error

	running  bool
	trails   bool
	showHelp bool

	camera *Camera
	canvas *Canvas
	trail  []r3.Vec
	drift  []float64
}

// NewLiveModel prepares a live view of e. The ensemble is copied. A
// cfg.Leaps of zero runs until halted or quit.
func NewLiveModel(name string, stepper sim.Stepper, e *dynamo.Ensemble, cfg dynamo.Config) LiveModel {
	m := LiveModel{
		name:      name,
		simulator: sim.New(stepper),
		cfg:       cfg,
		initial:   e.Clone(),
		running:   true,
		trails:    true,
		camera:    NewCamera(),
		canvas:    NewCanvas(width, height),
	}
	m.reset()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd { return tick() }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Close()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "c":
			m.trails = !m.trails
			m.trail = m.trail[:0]
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running && !m.halted && !m.finished {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// Close stops the background run, if any.
func (m LiveModel) Close() {
	if m.run != nil {
		m.run.cancel()
	}
}

// step takes the next leap from the background run.
func (m *LiveModel) step() {
	if m.run == nil {
		m.run = startRunner(m.simulator, m.initial.Clone(), m.cfg)
	}
	ev := <-m.run.events
	if ev.done {
		m.finished = true
		m.running = false
		var serr *dynamo.SimulationError
		if ev.err != nil && !errors.As(ev.err, &serr) && !errors.Is(ev.err, context.Canceled) {
			m.err = ev.err
			m.halted = true
		}
		return
	}

	p := ev.progress
	m.ens.Positions, m.ens.Velocities = ev.positions, ev.velocities
	m.leap, m.steps, m.t, m.halted = p.Leap, p.Steps, p.Time, p.Halted
	if m.cfg.Leaps > 0 && m.leap >= m.cfg.Leaps {
		m.running = false
	}

	drift := 0.0
	if m.e0 != 0 {
		drift = math.Abs(physics.Energy(m.ens)-m.e0) / math.Abs(m.e0)
	}
	if !math.IsNaN(drift) && !math.IsInf(drift, 0) {
		m.drift = append(m.drift, drift)
		if len(m.drift) > historyCapacity {
			m.drift = m.drift[1:]
		}
	}

	if m.trails {
		m.trail = append(m.trail, m.ens.Positions...)
		if over := len(m.trail) - trailCapacity; over > 0 {
			m.trail = m.trail[over:]
		}
	}
}

// reset restores the initial ensemble and refits the camera.
func (m *LiveModel) reset() {
	m.Close()
	m.run = nil
	m.ens = m.initial.Clone()
	m.e0 = physics.Energy(m.ens)
	m.t, m.leap, m.steps = 0, 0, 0
	m.halted, m.finished, m.err = false, false, nil
	m.trail = m.trail[:0]
	m.drift = m.drift[:0]
	w, h := m.canvas.PixelSize()
	m.camera.Fit(m.ens.Positions, centre(m.ens), w, h)
}

func centre(e *dynamo.Ensemble) r3.Vec {
	if physics.TotalMass(e) == 0 {
		return r3.Vec{}
	}
	return physics.CenterOfMass(e)
}

func (m *LiveModel) draw() {
	m.canvas.Clear()
	w, h := m.canvas.PixelSize()
	c := centre(m.initial)

	if m.trails {
		for _, p := range m.trail {
			if x, y, ok := m.camera.Project(p, c, w, h); ok {
				m.canvas.Set(x, y)
			}
		}
	}

	heaviest := 0.0
	for _, mass := range m.ens.Masses {
		heaviest = math.Max(heaviest, mass)
	}
	for i, p := range m.ens.Positions {
		x, y, ok := m.camera.Project(p, c, w, h)
		if !ok {
			continue
		}
		r := 0
		if heaviest > 0 && m.ens.Masses[i] >= heaviest/10 {
			r = 1
		}
		m.canvas.Mark(x, y, r)
	}
}

func (m LiveModel) status(st styles) string {
	switch {
	case m.err != nil:
		return st.halted.Render("REJECTED")
	case m.halted:
		return st.halted.Render("HALTED")
	case !m.running:
		return st.paused.Render("PAUSED")
	default:
		return st.running.Render("RUNNING")
	}
}

func (m LiveModel) View() string {
	st := themeStyles(CurrentTheme)
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status(st) + "\n\n")

	if len(m.drift) > 1 {
		chart := asciigraph.Plot(Log10(m.drift, -16), asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("log10 energy drift"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3f d", m.t/secondsPerDay))
	row("Leap", fmt.Sprintf("%d", m.leap))
	row("Steps", fmt.Sprintf("%d", m.steps))
	row("Bodies", fmt.Sprintf("%d", m.ens.Len()))
	row("dt", fmt.Sprintf("%g s", m.cfg.Dt))
	if len(m.drift) > 0 {
		row("Drift", fmt.Sprintf("%.3e", m.drift[len(m.drift)-1]))
	}
	if d := physics.MinSeparation(m.ens); !math.IsInf(d, 0) {
		row("Closest", fmt.Sprintf("%.4g m", d))
	}
	if m.cfg.Leaps > 0 {
		row("Progress", ProgressBar(float64(m.leap)/float64(m.cfg.Leaps), 20))
	}
	if m.err != nil {
		s.WriteString("\n" + st.halted.Render(m.err.Error()) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\nT:Theme  C:Trails ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))

	if m.showHelp {
		return `
  Space    Pause/Resume
  R        Reset to the initial ensemble
  C        Toggle trails
  T        Cycle themes
  X/Y      Rotate (shift reverses)
  +/-      Zoom
  Q        Quit
  ?        Toggle this help
` + "\n" + mainView
	}
	return mainView
}
