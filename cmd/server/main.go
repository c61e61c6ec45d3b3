package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/thereceipt/thermal-driver/internal/api"
	"github.com/thereceipt/thermal-driver/internal/command"
	"github.com/thereceipt/thermal-driver/internal/printer"
	"github.com/thereceipt/thermal-driver/internal/renderer"
	"github.com/thereceipt/thermal-driver/internal/tui"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	// Optional .env next to the binary or in the working directory.
	godotenv.Load()

	port := getPort()
	registryPath := getRegistryPath()
	paperWidth := getPaperWidth()

	// Initialize printer manager
	manager, err := printer.NewManager(registryPath)
	if err != nil {
		log.Fatalf("Failed to create printer manager: %v", err)
	}

	// Detect printers
	printers, err := manager.DetectPrinters()
	if err != nil {
		log.Printf("Warning: printer detection failed: %v", err)
	}

	// Create connection pool
	pool := printer.NewConnectionPool()

	// Create print queue with 3 retries
	queue := printer.NewPrintQueue(pool, manager, 3)
	defer queue.Stop()

	// Host-side rasterizer for images, QR codes, and rendered text
	r, err := renderer.New(paperWidth)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	// Start printer monitor
	monitor := printer.NewMonitor(manager, pool, 2*time.Second)

	// Create API server
	server := api.NewServer(manager, pool, queue, r)

	manager.OnPrinterAdded(func(p *printer.Printer) {
		server.BroadcastPrinterAdded(p)
	})
	manager.OnPrinterRemoved(func(id string) {
		server.BroadcastPrinterRemoved(id)
	})

	monitor.Start()
	defer monitor.Stop()

	// Start server in goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Run(port); err != nil {
			serverErrChan <- err
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if headless() {
		log.Printf("🚀 API server listening on :%s", port)
		if len(printers) > 0 {
			log.Printf("✅ Found %d printer(s)", len(printers))
		}

		select {
		case err := <-serverErrChan:
			log.Fatalf("Server error: %v", err)
		case <-sigChan:
			log.Println("🛑 Shutting down...")
			pool.DisconnectAll()
		}
		return
	}

	// Create TUI app with the shared command executor
	executor := command.NewExecutor(manager, pool, queue, r)
	tuiApp := tui.New(manager, pool, queue, executor, port)

	// Set up log capture to TUI
	log.SetOutput(io.MultiWriter(os.Stderr, tuiApp.LogWriter()))

	tuiApp.AddLog(fmt.Sprintf("🚀 API server listening on :%s", port), "info")
	if len(printers) > 0 {
		tuiApp.AddLog(fmt.Sprintf("✅ Found %d printer(s)", len(printers)), "info")
	}

	// Run TUI (blocking)
	tuiDone := make(chan struct{})
	go func() {
		if err := tuiApp.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
		close(tuiDone)
	}()

	// Wait for either TUI to quit, server error, or signal
	select {
	case err := <-serverErrChan:
		tuiApp.Stop()
		log.Fatalf("Server error: %v", err)
	case <-sigChan:
		tuiApp.Stop()
		pool.DisconnectAll()
	case <-tuiDone:
		pool.DisconnectAll()
	}
}

func getPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}

	// Check command line args
	for i, arg := range os.Args {
		if arg == "--port" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}

	return "12212"
}

// getPaperWidth returns the printable width in dots. 384 covers the common
// 58mm paper; 80mm heads are 576.
func getPaperWidth() int {
	if w := os.Getenv("PAPER_WIDTH_DOTS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid PAPER_WIDTH_DOTS %q, using 384", w)
	}
	return 384
}

func headless() bool {
	if os.Getenv("HEADLESS") == "1" {
		return true
	}
	for _, arg := range os.Args {
		if arg == "--headless" {
			return true
		}
	}
	return false
}

// getRegistryPath returns the path to the printer registry file.
// It tries to place it next to the executable, or falls back to current directory.
func getRegistryPath() string {
	if p := os.Getenv("REGISTRY_PATH"); p != "" {
		return p
	}

	// First, try to get the executable path and place registry next to it
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		registryPath := filepath.Join(exeDir, "printer_registry.json")

		if info, err := os.Stat(exeDir); err == nil && info.IsDir() {
			// Try to create a test file to check write permissions
			testFile := filepath.Join(exeDir, ".thermal-driver-write-test")
			if f, err := os.Create(testFile); err == nil {
				f.Close()
				os.Remove(testFile)
				return registryPath
			}
		}
	}

	// Fallback: use current directory
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "printer_registry.json")
	}

	// Last resort: user config directory
	var configDir string
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			configDir = filepath.Join(appData, "thermal-driver")
		} else {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "thermal-driver")
		}
	} else {
		if home := os.Getenv("HOME"); home != "" {
			configDir = filepath.Join(home, ".config", "thermal-driver")
		}
	}

	if configDir != "" {
		os.MkdirAll(configDir, 0755)
		return filepath.Join(configDir, "printer_registry.json")
	}

	return "printer_registry.json"
}
