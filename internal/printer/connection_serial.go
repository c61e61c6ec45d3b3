package printer

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialPort is the production transport behind the driver: a tarm/serial
// device configured 8N1. It satisfies thermal.Port; Wait really sleeps,
// which is the whole flow-control mechanism for these printers.
type SerialPort struct {
	port *serial.Port
	mu   sync.Mutex
}

// OpenSerial opens a serial printer device. A zero baud rate gets the
// stock printer default.
func OpenSerial(device string, baud int) (*SerialPort, error) {
	if baud == 0 {
		baud = 19200
	}

	config := &serial.Config{
		Name:        device,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 100 * time.Millisecond,
	}

	port, err := serial.OpenPort(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	return &SerialPort{port: port}, nil
}

// WriteBytes writes all of data or fails. A short write is an error: the
// device received a truncated command and the protocol stream is suspect.
func (c *SerialPort) WriteBytes(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.port.Write(data)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("serial write: wrote %d of %d bytes", n, len(data))
	}
	return nil
}

// Wait blocks the caller for d.
func (c *SerialPort) Wait(d time.Duration) error {
	if d > 0 {
		time.Sleep(d)
	}
	return nil
}

// Close closes the device.
func (c *SerialPort) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		return c.port.Close()
	}
	return nil
}
