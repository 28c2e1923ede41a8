package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/yourname/av1qsvd/internal/command"
	"github.com/yourname/av1qsvd/internal/jobstore"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, tea.Batch(
				refreshJobs(m.jobsDir),
				refreshMetrics(),
			)
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.jobs)-1 {
				m.cursor++
			}
			return m, nil
		case key.Matches(msg, keys.Requeue):
			return m.requeueSelected(), nil
		}
		return m, nil

	case jobsMsg:
		m.jobs = msg.jobs
		sortJobsByNewest(m.jobs)
		if m.cursor >= len(m.jobs) {
			m.cursor = len(m.jobs) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.lastRefresh = time.Now()
		return m, nil

	case metricsMsg:
		cpuPercent, err := cpu.Percent(time.Second, false)
		if err == nil && len(cpuPercent) > 0 {
			m.cpuPercent = cpuPercent[0]
		}

		memInfo, err := mem.VirtualMemory()
		if err == nil {
			m.memPercent = memInfo.UsedPercent
		}

		return m, nil

	case tickMsg:
		return m, tea.Batch(
			refreshJobs(m.jobsDir),
			refreshMetrics(),
			tick(),
		)

	case errMsg:
		return m, nil
	}

	return m, nil
}

// requeueSelected drops a requeue command file for the job under the
// cursor, if it is in a terminal state the daemon will act on.
func (m Model) requeueSelected() Model {
	if m.cursor < 0 || m.cursor >= len(m.jobs) {
		return m
	}
	job := m.jobs[m.cursor]
	if job.Status != jobstore.Failed && job.Status != jobstore.Skipped {
		m.notice = "only failed or skipped jobs can be requeued"
		return m
	}
	if err := command.Write(m.commandDir, command.NewRequeue(job.ID, "requeued from monitor")); err != nil {
		m.notice = fmt.Sprintf("requeue failed: %v", err)
		return m
	}
	m.notice = fmt.Sprintf("requeue requested for %s", job.ID[:8])
	return m
}

// sortJobsByNewest sorts jobs by CreatedAt, newest first.
func sortJobsByNewest(jobs []*jobstore.Job) {
	for i := 0; i < len(jobs)-1; i++ {
		for j := i + 1; j < len(jobs); j++ {
			if jobs[i].CreatedAt.Before(jobs[j].CreatedAt) {
				jobs[i], jobs[j] = jobs[j], jobs[i]
			}
		}
	}
}

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
	Requeue key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Requeue: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "requeue"),
	),
}
