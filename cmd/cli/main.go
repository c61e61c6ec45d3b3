package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	defaultServerURL = "http://localhost:12212"
)

func main() {
	var serverURL string
	flag.StringVar(&serverURL, "server", defaultServerURL, "Server URL")
	flag.StringVar(&serverURL, "s", defaultServerURL, "Server URL (short)")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	command := strings.Join(quoteArgs(flag.Args()), " ")

	result := executeCommand(serverURL, command)

	if result.Success {
		printSuccess(result)
		os.Exit(0)
	} else {
		printError(result)
		os.Exit(1)
	}
}

// quoteArgs re-quotes arguments containing spaces so the daemon's command
// parser sees them as single tokens again.
func quoteArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if strings.Contains(arg, " ") {
			arg = `"` + arg + `"`
		}
		out[i] = arg
	}
	return out
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Thermal Driver CLI

Usage:
  thermal-cli [flags] <command>

Flags:
  -s, -server <url>    Server URL (default: %s)

Commands:
  print <printer-id> text <value>
    Print text in the device font

  print <printer-id> barcode <value> [symbology]
    Print a device-native barcode (upca, upce, ean13, ean8,
    code39, itf, codabar, code93, code128)

  print <printer-id> qr <value>
    Render and print a QR code

  print <printer-id> image <path>
    Render and print an image file

  print <printer-id> test-page
    Print the device test page

  printer list
    List all detected printers

  printer rename <id> <name>
    Set a custom name for a printer

  printer calibrate <id> <baud> <firmware-version>
    Store serial calibration for a printer

  printer add <device>
    Register a serial device path manually

  job list
    List all print jobs

  job status <id>
    Get status of a specific job

  job clear
    Clear completed jobs from the queue

  detect
    Rescan serial ports for printers

  help
    Show help message

Examples:
  thermal-cli print printer-123 text "Hello World"
  thermal-cli print printer-123 barcode 012345678905 upca
  thermal-cli print printer-123 qr https://example.com
  thermal-cli printer calibrate printer-123 9600 264
  thermal-cli printer rename printer-123 "Kitchen Printer"
  thermal-cli job status job-456
  thermal-cli -s http://localhost:8080 printer list

`, defaultServerURL)
}

type CommandResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func executeCommand(serverURL, command string) *CommandResult {
	url := strings.TrimSuffix(serverURL, "/") + "/command"

	reqBody := map[string]string{
		"command": command,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to marshal request: %v", err),
		}
	}

	resp, err := http.Post(url, "application/json", strings.NewReader(string(jsonData)))
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to connect to server: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to read response: %v", err),
		}
	}

	var result CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	return &result
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}

	if result.Data != nil {
		if printers, ok := result.Data["printers"].([]interface{}); ok {
			fmt.Println("\nPrinters:")
			for _, p := range printers {
				if printer, ok := p.(map[string]interface{}); ok {
					name := printer["name"]
					if name == "" {
						name = printer["description"]
					}
					status := "offline"
					if connected, ok := printer["connected"].(bool); ok && connected {
						status = "connected"
					}
					fmt.Printf("  %s: %s (%s, %s)\n", printer["id"], name, printer["device"], status)
				}
			}
		}

		if jobs, ok := result.Data["jobs"].([]interface{}); ok {
			fmt.Println("\nJobs:")
			for _, j := range jobs {
				if job, ok := j.(map[string]interface{}); ok {
					fmt.Printf("  %s: %s %s (printer: %s)\n",
						job["id"], job["kind"], job["status"], job["printer_id"])
				}
			}
		}

		if jobID, ok := result.Data["job_id"].(string); ok {
			fmt.Printf("Job ID: %s\n", jobID)
		}

		if printerID, ok := result.Data["id"].(string); ok {
			fmt.Printf("Printer ID: %s\n", printerID)
		}
	}
}

func printError(result *CommandResult) {
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
	} else if result.Message != "" {
		fmt.Fprintf(os.Stderr, "%s\n", result.Message)
	}
}
