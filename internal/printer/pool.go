package printer

import (
	"fmt"
	"sync"

	"github.com/thereceipt/thermal-driver/pkg/thermal"
)

// session is one open printer: the serial port and the driver that
// exclusively owns it. The driver's timing state is only valid while no
// other writer touches the port, so the session is the ownership boundary.
type session struct {
	port *SerialPort
	drv  *thermal.Printer
	mu   sync.Mutex
}

// ConnectionPool manages open printer sessions.
type ConnectionPool struct {
	sessions map[string]*session
	mu       sync.RWMutex
}

// NewConnectionPool creates a new connection pool.
func NewConnectionPool() *ConnectionPool {
	return &ConnectionPool{
		sessions: make(map[string]*session),
	}
}

// Connect opens a session for a printer: open the serial device with the
// printer's stored calibration, wake the head, and initialize it.
func (p *ConnectionPool) Connect(printer *Printer, baud, firmwareVersion int) error {
	p.mu.Lock()
	if _, exists := p.sessions[printer.ID]; exists {
		p.mu.Unlock()
		return nil // already connected
	}
	p.mu.Unlock()

	port, err := OpenSerial(printer.Device, baud)
	if err != nil {
		return err
	}

	cfg := thermal.DefaultConfig()
	if baud != 0 {
		cfg.Baud = baud
	}
	if firmwareVersion != 0 {
		cfg.FirmwareVersion = firmwareVersion
	}
	drv := thermal.NewWithConfig(port, cfg)

	if err := drv.Wake(); err != nil {
		port.Close()
		return fmt.Errorf("failed to wake printer: %w", err)
	}
	if err := drv.Init(); err != nil {
		port.Close()
		return fmt.Errorf("failed to initialize printer: %w", err)
	}

	p.mu.Lock()
	p.sessions[printer.ID] = &session{port: port, drv: drv}
	p.mu.Unlock()

	return nil
}

// WithDriver runs fn with exclusive access to a printer's driver. All
// printing goes through here so command streams from different callers
// can never interleave on the wire.
func (p *ConnectionPool) WithDriver(printerID string, fn func(*thermal.Printer) error) error {
	p.mu.RLock()
	s, exists := p.sessions[printerID]
	p.mu.RUnlock()

	if !exists {
		return fmt.Errorf("printer not connected: %s", printerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.drv)
}

// IsConnected checks if a printer has an open session.
func (p *ConnectionPool) IsConnected(printerID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, exists := p.sessions[printerID]
	return exists
}

// Disconnect closes a printer session.
func (p *ConnectionPool) Disconnect(printerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, exists := p.sessions[printerID]
	if !exists {
		return nil
	}

	err := s.port.Close()
	delete(p.sessions, printerID)
	return err
}

// DisconnectAll closes every session, letting in-flight prints drain first.
func (p *ConnectionPool) DisconnectAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, s := range p.sessions {
		s.mu.Lock()
		s.port.Close()
		s.mu.Unlock()
		delete(p.sessions, id)
	}
}
