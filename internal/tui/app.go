// Package tui is the terminal dashboard for the printer daemon.
package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/thereceipt/thermal-driver/internal/command"
	"github.com/thereceipt/thermal-driver/internal/printer"
)

// App is the main TUI application using tview
type App struct {
	tv       *tview.Application
	manager  *printer.Manager
	pool     *printer.ConnectionPool
	queue    *printer.PrintQueue
	executor *command.Executor
	port     string

	// Main layout
	flex *tview.Flex

	// Panels
	printersList *tview.List
	queueTable   *tview.Table
	statusBox    *tview.TextView
	logsArea     *tview.TextView
	commandInput *tview.InputField

	// State
	logs      []string
	maxLogs   int
	startTime time.Time
}

// New creates a new tview-based TUI
func New(manager *printer.Manager, pool *printer.ConnectionPool, queue *printer.PrintQueue, executor *command.Executor, port string) *App {
	t := &App{
		tv:        tview.NewApplication(),
		manager:   manager,
		pool:      pool,
		queue:     queue,
		executor:  executor,
		port:      port,
		logs:      make([]string, 0),
		maxLogs:   100,
		startTime: time.Now(),
	}

	t.setupUI()
	return t
}

func (t *App) setupUI() {
	// Create panels
	t.printersList = tview.NewList()
	t.printersList.SetBorder(true)
	t.printersList.SetTitle("Printers")

	t.queueTable = tview.NewTable()
	t.queueTable.SetBorder(true)
	t.queueTable.SetTitle("Print Queue")

	t.statusBox = tview.NewTextView()
	t.statusBox.SetBorder(true)
	t.statusBox.SetTitle("Daemon Status")
	t.statusBox.SetDynamicColors(true)

	t.logsArea = tview.NewTextView()
	t.logsArea.SetBorder(true)
	t.logsArea.SetTitle("Logs")
	t.logsArea.SetDynamicColors(true)
	t.logsArea.SetScrollable(true)
	t.logsArea.SetChangedFunc(func() {
		t.tv.Draw()
	})

	t.commandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0).
		SetPlaceholder("Type a command (e.g., 'help')").
		SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEnter {
				t.executeCommand(t.commandInput.GetText())
				t.commandInput.SetText("")
			}
		})

	// Top row: Printers, Queue, Status
	topRow := tview.NewFlex().
		AddItem(t.printersList, 0, 1, false).
		AddItem(t.queueTable, 0, 1, false).
		AddItem(t.statusBox, 0, 1, false)

	// Bottom: Logs and command
	bottom := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.logsArea, 0, 3, false).
		AddItem(t.commandInput, 1, 0, true)

	// Main layout
	t.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, false).
		AddItem(bottom, 0, 1, false)

	t.tv.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if t.commandInput.HasFocus() {
			if event.Key() == tcell.KeyEsc {
				t.tv.SetFocus(t.printersList)
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEsc:
			t.tv.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ':':
				t.tv.SetFocus(t.commandInput)
				return nil
			case 'q':
				t.tv.Stop()
				return nil
			}
		}
		return event
	})

	t.tv.SetRoot(t.flex, true)
}

// Run starts the TUI and blocks until the user quits.
func (t *App) Run() error {
	t.refreshAll()

	go t.refreshTicker()

	t.AddLog("🖨️  Thermal driver daemon starting...", "info")

	return t.tv.Run()
}

// Stop terminates the TUI event loop.
func (t *App) Stop() {
	t.tv.Stop()
}

func (t *App) refreshTicker() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		t.tv.QueueUpdateDraw(func() {
			t.refreshAll()
		})
	}
}

func (t *App) refreshAll() {
	t.refreshPrinters()
	t.refreshQueue()
	t.refreshStatus()
}

func (t *App) refreshPrinters() {
	t.printersList.Clear()

	printers := t.manager.GetAllPrinters()
	if len(printers) == 0 {
		t.printersList.AddItem("No printers detected", "", 0, nil)
		return
	}

	for _, p := range printers {
		name := p.Name
		if name == "" {
			name = p.Description
		}
		if name == "" {
			name = p.ID
		}

		status := StatusIcon("offline")
		if t.pool.IsConnected(p.ID) {
			status = StatusIcon("connected")
		}

		t.printersList.AddItem(fmt.Sprintf("%s %s", status, name), p.Device, 0, nil)
	}
}

func (t *App) refreshQueue() {
	t.queueTable.Clear()

	// Header
	t.queueTable.SetCell(0, 0, tview.NewTableCell("Status").SetAlign(tview.AlignCenter).SetSelectable(false))
	t.queueTable.SetCell(0, 1, tview.NewTableCell("Kind").SetAlign(tview.AlignCenter).SetSelectable(false))
	t.queueTable.SetCell(0, 2, tview.NewTableCell("Retries").SetAlign(tview.AlignCenter).SetSelectable(false))
	t.queueTable.SetCell(0, 3, tview.NewTableCell("Time").SetAlign(tview.AlignCenter).SetSelectable(false))

	jobs := t.queue.GetAllJobs()

	queued := 0
	printing := 0
	completed := 0
	failed := 0

	for i, job := range jobs {
		row := i + 1

		t.queueTable.SetCell(row, 0, tview.NewTableCell(StatusIcon(job.Status)+" "+job.Status))
		t.queueTable.SetCell(row, 1, tview.NewTableCell(string(job.Kind)))
		t.queueTable.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", job.Retries)))

		timeStr := time.Since(job.CreatedAt).Truncate(time.Second).String()
		t.queueTable.SetCell(row, 3, tview.NewTableCell(timeStr))

		switch job.Status {
		case "queued":
			queued++
		case "printing":
			printing++
		case "completed":
			completed++
		case "failed":
			failed++
		}
	}

	if len(jobs) > 0 {
		summaryRow := len(jobs) + 1
		summary := fmt.Sprintf("[%d] Queued [%d] Printing [%d] Completed [%d] Failed",
			queued, printing, completed, failed)
		cell := tview.NewTableCell(summary)
		cell.SetSelectable(false)
		t.queueTable.SetCell(summaryRow, 0, cell)
	}
}

func (t *App) refreshStatus() {
	uptime := time.Since(t.startTime)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60

	status := fmt.Sprintf(`[green]🟢 Running[white]

Uptime: %dh %dm
API: :%s
Jobs: %d total`, hours, minutes, t.port, len(t.queue.GetAllJobs()))

	t.statusBox.SetText(status)
}

// executeCommand runs a line from the console through the shared command
// executor; local commands like clear and refresh are handled here.
func (t *App) executeCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}

	t.AddLog(fmt.Sprintf("> %s", cmd), "command")

	switch cmd {
	case "clear":
		t.logs = make([]string, 0)
		t.logsArea.Clear()
		return
	case "refresh":
		t.refreshAll()
		return
	case "quit", "q":
		t.tv.Stop()
		return
	}

	result := t.executor.Execute(cmd)

	if result.Message != "" {
		level := "info"
		if !result.Success {
			level = "error"
		}
		t.AddLog(result.Message, level)
	}
	if result.Error != "" {
		t.AddLog(result.Error, "error")
	}
	if result.Data != nil {
		if data, err := json.MarshalIndent(result.Data, "", "  "); err == nil {
			t.AddLog(string(data), "info")
		}
	}

	t.refreshAll()
}

// AddLog adds a log entry
func (t *App) AddLog(message string, level string) {
	var color string
	var icon string

	switch level {
	case "error":
		color = "[red]"
		icon = "❌"
	case "warning":
		color = "[yellow]"
		icon = "⚠️"
	case "command":
		color = "[cyan]"
		icon = ">"
	default:
		color = "[white]"
		icon = "ℹ️"
	}

	timeStr := time.Now().Format("15:04:05")
	logEntry := fmt.Sprintf("%s[%s] %s %s[white]\n", color, timeStr, icon, message)

	t.logs = append(t.logs, logEntry)
	if len(t.logs) > t.maxLogs {
		t.logs = t.logs[len(t.logs)-t.maxLogs:]
	}

	t.logsArea.Clear()
	for _, log := range t.logs {
		fmt.Fprint(t.logsArea, log)
	}

	t.logsArea.ScrollToEnd()
}

// LogWriter creates an io.Writer that writes to the logs panel
func (t *App) LogWriter() io.Writer {
	return &logWriter{app: t}
}

type logWriter struct {
	app *App
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSpace(string(p))
	if message != "" {
		w.app.AddLog(message, "info")
	}
	return len(p), nil
}
