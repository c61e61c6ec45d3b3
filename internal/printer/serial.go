package printer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tarm/serial"
	"github.com/thereceipt/thermal-driver/internal/registry"
)

// detectSerial scans for serial ports that might be printers.
func (m *Manager) detectSerial() ([]*Printer, error) {
	var printers []*Printer
	var ports []string

	switch runtime.GOOS {
	case "darwin":
		ports = scanMacOSPorts()
	case "linux":
		ports = scanLinuxPorts()
	case "windows":
		ports = scanWindowsPorts()
	default:
		return printers, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	for _, portPath := range ports {
		// Open the port briefly to verify it exists.
		config := &serial.Config{
			Name: portPath,
			Baud: 19200,
		}

		port, err := serial.OpenPort(config)
		if err != nil {
			continue
		}
		port.Close()

		info := registry.PrinterInfo{
			Device:      portPath,
			Description: fmt.Sprintf("Serial: %s", filepath.Base(portPath)),
		}

		id := m.registry.GetPrinterID(info)

		printers = append(printers, &Printer{
			ID:          id,
			Description: info.Description,
			Device:      portPath,
			Name:        m.registry.GetPrinterName(id),
		})
	}

	return printers, nil
}

func scanMacOSPorts() []string {
	var ports []string

	patterns := []string{
		"/dev/cu.*",
		"/dev/tty.*",
	}

	// Skip Bluetooth and other non-printer devices.
	skipPatterns := []string{
		"Bluetooth",
		"debug-console",
		"KeySerial",
	}

	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, match := range matches {
			skip := false
			for _, skipPattern := range skipPatterns {
				if strings.Contains(match, skipPattern) {
					skip = true
					break
				}
			}
			if !skip {
				ports = append(ports, match)
			}
		}
	}

	return ports
}

func scanLinuxPorts() []string {
	var ports []string

	patterns := []string{
		"/dev/ttyUSB*",
		"/dev/ttyACM*",
		"/dev/ttyS*",
	}

	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		ports = append(ports, matches...)
	}

	return ports
}

func scanWindowsPorts() []string {
	var ports []string

	for i := 1; i <= 256; i++ {
		ports = append(ports, fmt.Sprintf("COM%d", i))
	}

	return ports
}
