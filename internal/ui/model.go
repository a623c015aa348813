package ui

import (
	"context"
	"strings"
	"time"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"asciimation/internal/progress"
)

// Job is the work shown by the TUI. It must report through rep and return
// when ctx is cancelled.
type Job func(ctx context.Context, rep progress.Reporter) error

const maxLogLines = 5

// Model renders the preparation of a single video.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	job    Job
	title  string

	stage   progress.Stage
	status  string
	percent float64 // -1 means unknown
	current int
	total   int
	eta     *time.Duration
	speed   string
	frames  int

	done bool
	err  error
	logs []string

	spinner spinner.Model
	bar     bubblesprogress.Model

	width  int
	styles Styles

	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, title string, job Job) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()
	sp := spinner.New()
	sp.Style = sty.Spinner
	return Model{
		ctx:     c,
		cancel:  cancel,
		job:     job,
		title:   title,
		stage:   progress.StageDeps,
		status:  "Starting",
		percent: -1,
		spinner: sp,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
		styles:  sty,
		eventCh: make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runJobCmd(), m.listenEventsCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	listen := false
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// The job observes the cancellation and reports back with jobDoneMsg.
			m.cancel()
			m.status = "Cancelling"
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case updateMsg:
		listen = true
		u := msg.U
		m.stage = u.Stage
		m.percent = u.Percent
		if u.Message != "" {
			m.status = u.Message
		}
		m.current, m.total = u.Current, u.Total
		m.eta = u.ETA
		m.speed = ""
		if u.Speed != nil {
			m.speed = *u.Speed
		}
	case logMsg:
		listen = true
		line := strings.TrimRight(msg.L.Line, "\r\n")
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}
		m.logs = append(m.logs, line)
	case resultMsg:
		listen = true
		m.frames = msg.R.Frames
		if msg.R.Err != nil {
			m.stage = progress.StageError
			m.status = msg.R.Err.Error()
			m.percent = -1
		}
	case jobDoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Err != nil {
			m.stage = progress.StageError
			m.status = msg.Err.Error()
			m.percent = -1
		} else {
			m.stage = progress.StageCompleted
			m.percent = 100
		}
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	var c tea.Cmd
	m.spinner, c = m.spinner.Update(msg)
	if c != nil {
		cmds = append(cmds, c)
	}
	if listen {
		cmds = append(cmds, m.listenEventsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return m.viewHeader() + "\n\n" + m.viewJob()
}

// Err is the job's outcome once the program has quit.
func (m Model) Err() error { return m.err }

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		return <-m.eventCh
	}
}

// runJobCmd starts the job and delivers its outcome through the event channel
// so it is ordered after every event the job reported.
func (m Model) runJobCmd() tea.Cmd {
	return func() tea.Msg {
		go func() {
			err := m.job(m.ctx, teaReporter{ch: m.eventCh})
			m.eventCh <- jobDoneMsg{Err: err}
		}()
		return nil
	}
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on completion messages to ensure they're delivered
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- updateMsg{U: u}
		return
	}
	select {
	case r.ch <- updateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- logMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.ch <- resultMsg{R: res}
}
