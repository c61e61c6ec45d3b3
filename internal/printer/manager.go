// Package printer handles printer detection, connection, and the print
// job pipeline in front of the thermal driver.
package printer

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/thereceipt/thermal-driver/internal/registry"
)

// Manager handles printer detection and management.
type Manager struct {
	registry *registry.Registry
	printers map[string]*Printer
	mu       sync.RWMutex

	// Event callbacks
	onPrinterAdded   func(*Printer)
	onPrinterRemoved func(string)
}

// Printer represents a detected serial printer.
type Printer struct {
	ID          string
	Description string
	Device      string
	Name        string // custom user-set name
}

// NewManager creates a new printer manager.
func NewManager(registryPath string) (*Manager, error) {
	reg, err := registry.New(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return &Manager{
		registry: reg,
		printers: make(map[string]*Printer),
	}, nil
}

// DetectPrinters scans serial ports and returns every printer found.
func (m *Manager) DetectPrinters() ([]*Printer, error) {
	printers, err := m.detectSerial()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.printers = make(map[string]*Printer, len(printers))
	for _, p := range printers {
		m.printers[p.ID] = p
	}
	m.mu.Unlock()

	return printers, nil
}

// AddDevice registers a serial device that detection cannot see, such as a
// symlink or a port that is busy during the scan.
func (m *Manager) AddDevice(device string) *Printer {
	info := registry.PrinterInfo{
		Device:      device,
		Description: fmt.Sprintf("Serial: %s", filepath.Base(device)),
	}

	id := m.registry.GetPrinterID(info)

	p := &Printer{
		ID:          id,
		Description: info.Description,
		Device:      device,
		Name:        m.registry.GetPrinterName(id),
	}

	m.mu.Lock()
	m.printers[p.ID] = p
	m.mu.Unlock()

	if m.onPrinterAdded != nil {
		m.onPrinterAdded(p)
	}

	return p
}

// GetPrinter returns a printer by ID, or nil.
func (m *Manager) GetPrinter(id string) *Printer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.printers[id]
}

// GetAllPrinters returns every known printer.
func (m *Manager) GetAllPrinters() []*Printer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	printers := make([]*Printer, 0, len(m.printers))
	for _, p := range m.printers {
		printers = append(printers, p)
	}
	return printers
}

// SetPrinterName stores a custom name for a printer.
func (m *Manager) SetPrinterName(id, name string) bool {
	ok := m.registry.SetPrinterName(id, name)
	if ok {
		m.mu.Lock()
		if p, exists := m.printers[id]; exists {
			p.Name = name
		}
		m.mu.Unlock()
	}
	return ok
}

// Calibrate stores the serial calibration for a printer. It takes effect on
// the next connection.
func (m *Manager) Calibrate(id string, baud, firmwareVersion int) bool {
	return m.registry.SetCalibration(id, baud, firmwareVersion)
}

// Calibration returns the stored baud and firmware version for a printer;
// zero values mean the driver defaults apply.
func (m *Manager) Calibration(id string) (baud, firmwareVersion int) {
	entry := m.registry.GetPrinterInfo(id)
	if entry == nil {
		return 0, 0
	}
	return entry.Baud, entry.FirmwareVersion
}

// OnPrinterAdded registers a callback for new printers.
func (m *Manager) OnPrinterAdded(fn func(*Printer)) {
	m.onPrinterAdded = fn
}

// OnPrinterRemoved registers a callback for removed printers.
func (m *Manager) OnPrinterRemoved(fn func(string)) {
	m.onPrinterRemoved = fn
}
