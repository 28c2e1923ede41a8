package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yourname/av1qsvd/internal/jobstore"
)

// Model represents the TUI state. The monitor is a read-only observer of
// the job directory; its only write path is dropping requeue command
// files into commandDir.
type Model struct {
	jobsDir     string
	commandDir  string
	jobs        []*jobstore.Job
	cursor      int
	notice      string
	cpuPercent  float64
	memPercent  float64
	width       int
	height      int
	lastRefresh time.Time
}

// NewModel creates a new TUI model observing jobsDir and writing commands
// to commandDir.
func NewModel(jobsDir, commandDir string) Model {
	return Model{
		jobsDir:     jobsDir,
		commandDir:  commandDir,
		jobs:        []*jobstore.Job{},
		lastRefresh: time.Now(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshJobs(m.jobsDir),
		refreshMetrics(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type tickMsg time.Time

func refreshJobs(jobsDir string) tea.Cmd {
	return func() tea.Msg {
		jobs, err := jobstore.LoadAll(jobsDir)
		if err != nil {
			return errMsg{err}
		}
		return jobsMsg{jobs}
	}
}

type jobsMsg struct {
	jobs []*jobstore.Job
}

func refreshMetrics() tea.Cmd {
	return func() tea.Msg {
		return metricsMsg{}
	}
}

type metricsMsg struct{}

type errMsg struct {
	err error
}
