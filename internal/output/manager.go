package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/segdl/internal/utils"
)

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

type download struct {
	Label    string
	Record   *utils.Record
	Finished time.Time
}

// Manager renders live per-download progress from the shared records. It
// only reads segment counters and never blocks the workers.
type Manager struct {
	mutex       sync.RWMutex
	out         io.Writer
	downloads   []*download
	errors      []ErrorReport
	numLines    int
	displayTick time.Duration
	doneCh      chan struct{}
	displayWg   sync.WaitGroup
	started     bool
}

func NewManager(out io.Writer, tick time.Duration) *Manager {
	if tick <= 0 {
		tick = time.Second
	}
	return &Manager{
		out:         out,
		displayTick: tick,
		doneCh:      make(chan struct{}),
	}
}

// Track adds a submitted download to the display.
func (m *Manager) Track(label string, rec *utils.Record) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.downloads = append(m.downloads, &download{Label: label, Record: rec})
}

// ReportError records a download that never made it into the queue.
func (m *Manager) ReportError(label string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errors = append(m.errors, ErrorReport{Label: label, Error: err, Time: time.Now()})
}

// Failures counts rejected submissions plus tracked downloads that finished
// without every byte.
func (m *Manager) Failures() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	failures := len(m.errors)
	for _, d := range m.downloads {
		if d.Record.Done() && !d.Record.Complete() {
			failures++
		}
	}
	return failures
}

func status(rec *utils.Record) string {
	switch {
	case rec.Done() && rec.Complete():
		return "success"
	case rec.Done():
		return "error"
	case rec.Downloaded() == 0:
		return "pending"
	default:
		return "active"
	}
}

func statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

// renderDownload returns the status line and the bar line for d.
func (m *Manager) renderDownload(d *download, now time.Time) []string {
	rec := d.Record
	st := status(rec)
	if d.Finished.IsZero() && rec.Done() {
		d.Finished = now
	}
	end := now
	if !d.Finished.IsZero() {
		end = d.Finished
	}
	elapsed := end.Sub(rec.Started)
	done := rec.Downloaded()

	var message string
	switch st {
	case "success":
		message = successStyle.Render(fmt.Sprintf("Completed %s", d.Label))
	case "error":
		message = errorStyle.Render(fmt.Sprintf("Failed %s", d.Label))
	default:
		message = pendingStyle.Render(d.Label)
	}
	head := fmt.Sprintf("%s%s %s %s", strings.Repeat(" ", 2), statusIndicator(st), debugStyle.Render(elapsed.Round(time.Second).String()), message)
	bar := fmt.Sprintf("%s[%s] %s %s %s",
		strings.Repeat(" ", 2+4),
		barStyle.Render(SegmentBar(rec, BarWidth)),
		debugStyle.Render(fmt.Sprintf("%s / %s", FormatBytes(done), FormatBytes(rec.Header.Size))),
		StyleSymbols["bullet"],
		debugStyle.Render(FormatSpeed(done, elapsed.Seconds())))
	return []string{head, bar}
}

func (m *Manager) updateDisplay() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	availableLines := getTerminalHeight() - 3
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	now := time.Now()
	lineCount := 0
	for _, d := range m.downloads {
		for _, line := range m.renderDownload(d, now) {
			if lineCount >= availableLines {
				break
			}
			fmt.Fprintln(m.out, line)
			lineCount++
		}
	}
	m.numLines = lineCount
}

// StartDisplay redraws every tick until StopDisplay.
func (m *Manager) StartDisplay() {
	m.started = true
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

// StopDisplay draws the final state and prints the summary.
func (m *Manager) StopDisplay() {
	if m.started {
		close(m.doneCh)
		m.displayWg.Wait()
	}
	m.ShowSummary()
}

func (m *Manager) displayErrors(reports []ErrorReport) {
	if len(reports) == 0 {
		return
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
	for i, report := range reports {
		fmt.Fprintf(m.out, "%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", report.Time.Format("15:04:05"))),
			errorStyle.Render(report.Label))
		for _, line := range wrapText(fmt.Sprintf("Error: %v", report.Error), 2+4) {
			fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 2+4), streamStyle.Render(line))
		}
	}
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	total := len(m.downloads) + len(m.errors)
	reports := append([]ErrorReport(nil), m.errors...)
	var success, failures int
	failures = len(m.errors)
	for _, d := range m.downloads {
		switch {
		case d.Record.Complete():
			success++
		case d.Record.Done():
			failures++
			at := d.Finished
			if at.IsZero() {
				at = time.Now()
			}
			reports = append(reports, ErrorReport{Label: d.Label, Error: d.Record.Err(), Time: at})
		}
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, strings.Repeat(" ", 2)+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, total)))
	if failures > 0 {
		fmt.Fprintln(m.out, strings.Repeat(" ", 2)+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, total)))
	}
	m.displayErrors(reports)
	fmt.Fprintln(m.out)
}
