package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yourname/av1qsvd/internal/jobstore"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("250")).
			Padding(1, 1).
			Margin(0, 1, 1, 0)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("238")).
			Bold(true)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("136"))

	cpuColor = lipgloss.Color("196")
	memColor = lipgloss.Color("39")
)

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Width(m.width - 2).Render("AV1 Re-encoding Daemon")

	metricsWidth := maxInt(40, m.width/2-4)
	if metricsWidth > 50 {
		metricsWidth = 50
	}
	summaryWidth := maxInt(40, m.width-metricsWidth-6)

	metricsPanel := renderMetricsPanel(m.cpuPercent, m.memPercent, metricsWidth)
	summaryPanel := renderSummaryPanel(m.jobs, summaryWidth)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, metricsPanel, summaryPanel)

	activeBody, hasActive := renderActiveJob(m.jobs)
	if !hasActive {
		activeBody = mutedStyle.Render("No active encoding job")
	}
	activePanel := renderPanel("ACTIVE JOB", activeBody, m.width-4)

	tableWidth := maxInt(80, m.width-4)
	titleHeight := lipgloss.Height(title)
	topRowHeight := lipgloss.Height(topRow)
	activeHeight := lipgloss.Height(activePanel)
	statusHeight := 1
	availableBody := m.height - (titleHeight + topRowHeight + activeHeight + statusHeight) - 6
	if availableBody < 5 {
		availableBody = 5
	}

	jobsPanel := renderPanel("JOB QUEUE", renderJobTable(m.jobs, m.cursor, tableWidth, availableBody), m.width-2)

	statusBar := renderStatusBar(m.jobs, m.jobsDir, m.lastRefresh, m.notice, m.width-2)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		topRow,
		activePanel,
		jobsPanel,
		statusBar,
	)
}

func renderPanel(title, body string, width int) string {
	titleBar := panelTitleStyle.Render(" " + title + " ")
	content := titleBar + "\n" + body

	if width > 0 {
		return panelStyle.Width(width).Render(content)
	}
	return panelStyle.Render(content)
}

func renderMetricsPanel(cpuPercent, memPercent float64, width int) string {
	lines := []string{
		renderBar("CPU", cpuPercent, cpuColor, width-4),
		renderBar("MEM", memPercent, memColor, width-4),
	}
	body := strings.Join(lines, "\n")
	return renderPanel("SYSTEM METRICS", body, width)
}

func renderBar(label string, value float64, color lipgloss.Color, width int) string {
	barWidth := width - 12
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int((value / 100.0) * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	filledBar := strings.Repeat("█", filled)
	emptyBar := strings.Repeat("░", barWidth-filled)
	bar := lipgloss.NewStyle().Foreground(color).Render(filledBar + emptyBar)

	var percentColor lipgloss.Color
	if value < 50 {
		percentColor = lipgloss.Color("76")
	} else if value < 80 {
		percentColor = lipgloss.Color("226")
	} else {
		percentColor = lipgloss.Color("196")
	}

	percent := lipgloss.NewStyle().Foreground(percentColor).Render(fmt.Sprintf("%5.1f%%", value))
	labelText := labelStyle.Render(fmt.Sprintf("%-3s", label))

	return fmt.Sprintf("%s %s %s", labelText, bar, percent)
}

func renderSummaryPanel(jobList []*jobstore.Job, width int) string {
	var total, pending, running, success, failed, skipped int

	for _, job := range jobList {
		total++
		switch job.Status {
		case jobstore.Pending:
			pending++
		case jobstore.Running:
			running++
		case jobstore.Success:
			success++
		case jobstore.Failed:
			failed++
		case jobstore.Skipped:
			skipped++
		}
	}

	lines := []string{
		renderSummaryLine("Total", total, lipgloss.Color("250")),
		renderSummaryLine("Pending", pending, lipgloss.Color("244")),
		renderSummaryLine("Running", running, lipgloss.Color("39")),
		renderSummaryLine("Success", success, lipgloss.Color("76")),
		renderSummaryLine("Failed", failed, lipgloss.Color("160")),
		renderSummaryLine("Skipped", skipped, lipgloss.Color("136")),
	}

	body := strings.Join(lines, "\n")
	return renderPanel("QUEUE SUMMARY", body, width)
}

func renderSummaryLine(label string, value int, color lipgloss.Color) string {
	labelText := labelStyle.Render(fmt.Sprintf("%-8s", label))
	valueText := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%d", value))
	return fmt.Sprintf("%s %s", labelText, valueText)
}

func renderActiveJob(jobList []*jobstore.Job) (string, bool) {
	var runningJob *jobstore.Job
	for _, job := range jobList {
		if job.Status == jobstore.Running {
			runningJob = job
			break
		}
	}

	if runningJob == nil {
		return "", false
	}

	var lines []string

	fileName := filepath.Base(runningJob.SourcePath)
	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("File:"), valueStyle.Render(fileName)))

	if res := runningJob.Resolution(); res != "" {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Resolution:"), valueStyle.Render(res)))
	}
	if runningJob.SourceCodec != "" {
		codec := runningJob.SourceCodec
		if runningJob.SourceBitDepth > 0 {
			codec = fmt.Sprintf("%s (%d-bit)", codec, runningJob.SourceBitDepth)
		}
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Codec:"), valueStyle.Render(codec)))
	}
	if runningJob.FrameRate != "" {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Frame Rate:"), valueStyle.Render(runningJob.FrameRate+" fps")))
	}

	var streamParts []string
	if runningJob.AudioStreams > 0 {
		streamParts = append(streamParts, fmt.Sprintf("%d audio", runningJob.AudioStreams))
	}
	if runningJob.SubtitleStreams > 0 {
		streamParts = append(streamParts, fmt.Sprintf("%d subtitle", runningJob.SubtitleStreams))
	}
	if len(streamParts) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Streams:"), valueStyle.Render(strings.Join(streamParts, ", "))))
	}

	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Original:"), valueStyle.Render(formatSize(runningJob.OriginalBytes))))

	if runningJob.NewBytes > 0 {
		savings := float64(runningJob.OriginalBytes-runningJob.NewBytes) / float64(runningJob.OriginalBytes) * 100
		lines = append(lines, fmt.Sprintf("%s %s (%.1f%% reduction)",
			labelStyle.Render("Current:"),
			valueStyle.Render(formatSize(runningJob.NewBytes)),
			savings))
	}

	if runningJob.StartedAt != nil {
		elapsed := time.Since(*runningJob.StartedAt)
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Elapsed:"), valueStyle.Render(formatElapsed(elapsed))))
	}

	if runningJob.IsWebLike {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Type:"), valueStyle.Render("Web-like")))
	} else {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Type:"), valueStyle.Render("Disc-like / unknown")))
	}

	if len(runningJob.ClassificationReasons) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Why:"), mutedStyle.Render(strings.Join(runningJob.ClassificationReasons, "; "))))
	}

	return strings.Join(lines, "\n"), true
}

func renderJobTable(jobs []*jobstore.Job, cursor int, width int, maxLines int) string {
	if len(jobs) == 0 {
		return mutedStyle.Render("No jobs in queue")
	}

	if maxLines < 2 {
		maxLines = 2
	}

	colWidths := calculateColumnWidths(width)

	header := renderRow(
		[]string{"STATUS", "FILE", "CODEC", "RES", "ORIG", "NEW", "SAVE", "TIME", "REASON"},
		colWidths,
	)

	var rows []string
	rows = append(rows, panelTitleStyle.Render(header))

	visible := maxLines - 1
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(jobs) {
		end = len(jobs)
	}

	for i := start; i < end; i++ {
		rows = append(rows, renderJobRow(jobs[i], i == cursor, colWidths))
	}

	if end < len(jobs) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("… %d more jobs", len(jobs)-end)))
	}

	return strings.Join(rows, "\n")
}

var columnOrder = []string{"STATUS", "FILE", "CODEC", "RES", "ORIG", "NEW", "SAVE", "TIME", "REASON"}

func renderRow(columns []string, widths map[string]int) string {
	var parts []string
	for i, colName := range columnOrder {
		width := widths[colName]
		text := ""
		if i < len(columns) {
			text = columns[i]
		}
		if len(text) > width {
			text = text[:width-3] + "..."
		} else {
			text = text + strings.Repeat(" ", width-len(text))
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func renderJobRow(job *jobstore.Job, selected bool, widths map[string]int) string {
	status := formatStatus(job.Status)
	fileName := filepath.Base(job.SourcePath)
	codec := job.SourceCodec
	if codec == "" {
		codec = "-"
	}
	resolution := job.Resolution()
	if resolution == "" {
		resolution = "-"
	}
	origSize := formatSize(job.OriginalBytes)
	newSize := formatSize(job.NewBytes)
	savings := calculateSavings(job.OriginalBytes, job.NewBytes)
	duration := formatDuration(job)
	reason := job.Reason
	if reason == "" {
		reason = "-"
	}

	row := renderRow(
		[]string{status, fileName, codec, resolution, origSize, newSize, savings, duration, reason},
		widths,
	)

	if selected {
		return selectedStyle.Render(row)
	}

	switch job.Status {
	case jobstore.Success:
		return successStyle.Render(row)
	case jobstore.Failed:
		return failedStyle.Render(row)
	case jobstore.Skipped:
		return skippedStyle.Render(row)
	case jobstore.Running:
		return runningStyle.Render(row)
	case jobstore.Pending:
		return pendingStyle.Render(row)
	default:
		return row
	}
}

func renderStatusBar(jobList []*jobstore.Job, jobsDir string, lastRefresh time.Time, notice string, width int) string {
	var stats struct {
		total   int
		running int
		failed  int
	}

	for _, job := range jobList {
		stats.total++
		switch job.Status {
		case jobstore.Running:
			stats.running++
		case jobstore.Failed:
			stats.failed++
		}
	}

	runningText := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(fmt.Sprintf("%d", stats.running))
	failedText := lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Render(fmt.Sprintf("%d", stats.failed))

	statusText := fmt.Sprintf("Jobs: %d total | %s running | %s failed | Dir: %s | Updated: %s | [q]uit [r]efresh [u] requeue",
		stats.total,
		runningText,
		failedText,
		jobsDir,
		lastRefresh.Format("15:04:05"),
	)
	if notice != "" {
		statusText += " | " + notice
	}

	if len(statusText) > width {
		statusText = statusText[:width-3] + "..."
	}

	return statusBarStyle.Width(width).Render(statusText)
}

func formatStatus(status jobstore.Status) string {
	switch status {
	case jobstore.Pending:
		return "PENDING"
	case jobstore.Running:
		return "RUNNING"
	case jobstore.Success:
		return "SUCCESS"
	case jobstore.Failed:
		return "FAILED"
	case jobstore.Skipped:
		return "SKIPPED"
	default:
		return string(status)
	}
}

func formatDuration(job *jobstore.Job) string {
	if job.StartedAt == nil {
		return "-"
	}
	var endTime time.Time
	if job.FinishedAt != nil {
		endTime = *job.FinishedAt
	} else {
		endTime = time.Now()
	}
	duration := endTime.Sub(*job.StartedAt)
	if duration < time.Second {
		return "<1s"
	}
	if duration < time.Minute {
		return fmt.Sprintf("%.0fs", duration.Seconds())
	}
	return fmt.Sprintf("%.1fm", duration.Minutes())
}

func formatSize(bytes int64) string {
	if bytes == 0 {
		return "-"
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func calculateSavings(origSize, newSize int64) string {
	if origSize == 0 || newSize == 0 {
		return "-"
	}
	savings := float64(origSize-newSize) / float64(origSize) * 100
	if savings < 0 {
		return fmt.Sprintf("+%.1f%%", -savings)
	}
	return fmt.Sprintf("%.1f%%", savings)
}

func formatElapsed(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

func calculateColumnWidths(totalWidth int) map[string]int {
	widths := map[string]int{
		"STATUS": 8,
		"CODEC":  6,
		"RES":    11,
		"ORIG":   8,
		"NEW":    8,
		"SAVE":   7,
		"TIME":   6,
		"REASON": 30,
	}

	usedWidth := widths["STATUS"] + widths["CODEC"] + widths["RES"] +
		widths["ORIG"] + widths["NEW"] +
		widths["SAVE"] + widths["TIME"] + widths["REASON"] + 8
	fileWidth := totalWidth - usedWidth - 2
	if fileWidth < 15 {
		fileWidth = 15
	}
	widths["FILE"] = fileWidth

	return widths
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
