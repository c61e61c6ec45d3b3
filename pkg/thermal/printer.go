// Package thermal drives serial dot-matrix thermal printers that expose no
// hardware flow control. The printer cannot tell the host when its buffer
// drains, so the driver models how long each command keeps the mechanism
// busy and waits that long before transmitting the next one. Overrunning the
// buffer drops output silently; the timing discipline here is what prevents
// that.
package thermal

import (
	"context"
	"fmt"
	"time"
)

// Config carries the physical and firmware calibration for one printer.
// These are device constants measured per hardware model, not tunables the
// protocol defines.
type Config struct {
	// Baud is the serial line rate; the driver derives per-byte wire time
	// from it.
	Baud int

	// FirmwareVersion selects the command dialect. Firmware 264 and later
	// understands the extended ESC/GS commands; older firmware gets the
	// byte-repetition fallbacks.
	FirmwareVersion int

	// DotPrintTime is the time to burn one row of dots.
	DotPrintTime time.Duration

	// DotFeedTime is the time to advance the paper one dot row.
	DotFeedTime time.Duration

	// BufferCapacity is the size in bytes of the printer's raster buffer.
	// No single raster chunk may exceed it.
	BufferCapacity int
}

// DefaultConfig returns the calibration for the stock 19200-baud printer.
func DefaultConfig() Config {
	return Config{
		Baud:            19200,
		FirmwareVersion: 268,
		DotPrintTime:    25 * time.Millisecond,
		DotFeedTime:     2100 * time.Microsecond,
		BufferCapacity:  8384,
	}
}

// Printer owns one serial printer session. It is not safe for concurrent
// use; the port behind it must have no other writers.
type Printer struct {
	port Port

	// pending is unconsumed printer busy time: how long the caller must
	// wait before the next command is safe to send.
	pending time.Duration

	lastByte   byte
	lastColumn int

	maxColumn        int
	charHeight       int // dots
	interLineSpacing int // dots
	barcodeHeight    int // dots

	firmwareVersion int

	dotPrintTime time.Duration
	dotFeedTime  time.Duration
	byteTime     time.Duration
	capacity     int
}

// New wraps a port with the default calibration.
func New(port Port) *Printer {
	return NewWithConfig(port, DefaultConfig())
}

// NewWithConfig wraps a port with explicit calibration. The device needs
// settling time after power-up before it accepts its first command, so the
// session starts with a 500ms pending wait.
func NewWithConfig(port Port, cfg Config) *Printer {
	p := &Printer{
		port: port,

		lastByte:         LF,
		maxColumn:        32,
		charHeight:       24,
		interLineSpacing: 6,
		barcodeHeight:    50,

		firmwareVersion: cfg.FirmwareVersion,
		dotPrintTime:    cfg.DotPrintTime,
		dotFeedTime:     cfg.DotFeedTime,
		byteTime:        byteTime(cfg.Baud),
		capacity:        cfg.BufferCapacity,
	}
	p.pending = 500 * time.Millisecond
	return p
}

// Wait consumes the pending busy time. Every transmission calls it first;
// callers only need it to block until the final command has finished
// printing.
func (p *Printer) Wait() error {
	if err := p.port.Wait(p.pending); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	p.pending = 0
	return nil
}

// transmit is the single path to the wire: consume the pending wait, then
// write. Nothing may call port.WriteBytes directly.
func (p *Printer) transmit(cmd []byte) error {
	if err := p.Wait(); err != nil {
		return err
	}
	if err := p.port.WriteBytes(cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

func (p *Printer) feedDuration() time.Duration {
	return feedDuration(p.charHeight, p.interLineSpacing, p.dotFeedTime)
}

func (p *Printer) textLineDuration() time.Duration {
	return textLineDuration(p.charHeight, p.interLineSpacing, p.dotPrintTime, p.dotFeedTime)
}

// Init resets the device (ESC @), restores the default line geometry, and,
// on firmware 264 and later, programs tab stops and the heating parameters.
// Calibration constants survive; only cursor and geometry state reset.
func (p *Printer) Init() error {
	if err := p.transmit([]byte{ESC, '@'}); err != nil {
		return err
	}
	p.pending = 100 * time.Millisecond

	p.lastByte = LF
	p.lastColumn = 0
	p.maxColumn = 32
	p.charHeight = 24
	p.interLineSpacing = 6
	p.barcodeHeight = 50

	if p.firmwareVersion >= 264 {
		if err := p.transmit([]byte{ESC, 'D', 4, 8, 12, 16, 20, 24, 28, 0}); err != nil {
			return err
		}
	}

	return p.SetHeatConfig(11, 120*time.Microsecond, 40*time.Microsecond)
}

// WriteChar sends one character. Carriage returns are dropped; line endings
// are line-feed only. When the character ends a line, either explicitly via
// LF or implicitly by reaching the last column, the line's print or feed
// cost is charged so the host estimate tracks the device's real progress.
func (p *Printer) WriteChar(c byte) error {
	if c == CR {
		return nil
	}

	if err := p.transmit([]byte{c}); err != nil {
		return err
	}
	d := p.byteTime

	if c == LF || p.lastColumn >= p.maxColumn {
		if p.lastByte == LF {
			// Consecutive feeds only pay the feed cost, not a full
			// text line.
			d += p.feedDuration()
		} else {
			d += p.textLineDuration()
		}
		p.lastColumn = 0
		p.lastByte = LF
	} else {
		p.lastColumn++
		p.lastByte = c
	}

	p.pending = d
	return nil
}

// Write sends s a character at a time, stopping at the first transport
// error. Bytes already sent are not un-sent.
func (p *Printer) Write(s string) error {
	for i := 0; i < len(s); i++ {
		if err := p.WriteChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Feed advances the paper by lines empty lines. Zero is a no-op. Legacy
// firmware lacks the multi-line feed command and gets individual line feeds
// instead.
func (p *Printer) Feed(lines int) error {
	if lines <= 0 {
		return nil
	}
	if lines > 0xFF {
		return fmt.Errorf("%w: feed of %d lines", ErrEncoding, lines)
	}

	if p.firmwareVersion >= 264 {
		if err := p.transmit([]byte{ESC, 'd', byte(lines)}); err != nil {
			return err
		}
		p.pending = p.dotFeedTime * time.Duration(p.charHeight)
		p.lastByte = LF
		p.lastColumn = 0
		return nil
	}

	for n := 0; n < lines; n++ {
		if err := p.WriteChar(LF); err != nil {
			return err
		}
	}
	return nil
}

// Wake brings the print head out of low-power idle. Modern firmware gets an
// explicit sleep-off command; older firmware needs a train of null pulses,
// each with its own settle time.
func (p *Printer) Wake() error {
	p.pending = 0
	if err := p.transmit([]byte{0xFF}); err != nil {
		return err
	}
	p.pending = 50 * time.Millisecond

	if p.firmwareVersion > 264 {
		if err := p.transmit([]byte{ESC, '8', 0, 0}); err != nil {
			return err
		}
		p.pending = 50 * time.Millisecond
		return nil
	}

	for i := 0; i < 10; i++ {
		if err := p.transmit([]byte{0}); err != nil {
			return err
		}
		p.pending = 10 * time.Millisecond
	}
	return nil
}

// PrintBarcode prints text as a barcode in the given symbology, with the
// human-readable text below it. The payload length must fit the protocol's
// single length byte.
func (p *Printer) PrintBarcode(text string, kind Barcode) error {
	if len(text) > 0xFF {
		return fmt.Errorf("%w: barcode payload of %d bytes", ErrEncoding, len(text))
	}

	if err := p.Feed(1); err != nil {
		return err
	}

	code := byte(kind)
	if p.firmwareVersion >= 264 {
		code += 65
	}

	// Human readable text below the barcode.
	if err := p.transmit([]byte{GS, 'H', 2}); err != nil {
		return err
	}
	if err := p.transmit([]byte{GS, 'w', 3}); err != nil {
		return err
	}

	if p.firmwareVersion >= 264 {
		if err := p.transmit([]byte{GS, 'k', code, byte(len(text))}); err != nil {
			return err
		}
		if err := p.transmit([]byte(text)); err != nil {
			return err
		}
	} else {
		// Legacy dialect null-terminates instead of length-prefixing.
		if err := p.transmit([]byte{GS, 'k', code}); err != nil {
			return err
		}
		if err := p.transmit([]byte(text)); err != nil {
			return err
		}
		if err := p.transmit([]byte{0}); err != nil {
			return err
		}
	}

	p.pending = time.Duration(p.barcodeHeight+40) * p.dotPrintTime
	p.lastByte = LF
	return nil
}

// PrintBitmap prints a width x height monochrome bitmap. bits is row-major,
// MSB-first, exactly ceil(width*height/8) bytes; anything else is a
// precondition failure. The bitmap is split into buffer-sized raster chunks
// and every row is paced by the dot print time.
func (p *Printer) PrintBitmap(width, height int, bits []byte) error {
	return p.PrintBitmapContext(context.Background(), width, height, bits)
}

// PrintBitmapContext is PrintBitmap with cancellation between chunks. A
// chunk already in flight always completes; aborting mid-chunk would leave
// a partial raster row on the device.
func (p *Printer) PrintBitmapContext(ctx context.Context, width, height int, bits []byte) error {
	chunks, err := chunkBitmap(width, height, bits, p.capacity)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.transmit(c.header); err != nil {
			return err
		}
		for _, row := range c.rows {
			if err := p.transmit(row); err != nil {
				return err
			}
			p.pending = p.dotPrintTime
		}
	}

	p.lastByte = LF
	p.lastColumn = 0
	return nil
}

// SetHeatConfig programs how many dots energize at once and the heating
// time and interval. The durations go on the wire in tens of microseconds
// and must fit a byte.
func (p *Printer) SetHeatConfig(dots byte, heatingTime, heatingInterval time.Duration) error {
	ht, err := durationByte(heatingTime, 10*time.Microsecond, "heating time")
	if err != nil {
		return err
	}
	hi, err := durationByte(heatingInterval, 10*time.Microsecond, "heating interval")
	if err != nil {
		return err
	}
	return p.transmit([]byte{ESC, '7', dots, ht, hi})
}

// SetPrintDensity sets the burn density and the break time between heat
// pulses (encoded in 250µs steps in the top bits of the same byte).
func (p *Printer) SetPrintDensity(density byte, breakTime time.Duration) error {
	bt, err := durationByte(breakTime, 250*time.Microsecond, "break time")
	if err != nil {
		return err
	}
	if err := p.transmit([]byte{ESC, '#', density | (bt&0x7)<<5}); err != nil {
		return err
	}
	p.pending = time.Millisecond
	return nil
}

// SetUnderline sets the underline weight for subsequent text.
func (p *Printer) SetUnderline(u Underline) error {
	if err := p.transmit([]byte{ESC, '-', byte(u)}); err != nil {
		return err
	}
	p.pending = time.Millisecond
	return nil
}

// SetBarcodeHeight sets the barcode height in dots. The device treats zero
// as invalid, so the minimum is one dot.
func (p *Printer) SetBarcodeHeight(val byte) error {
	if val < 1 {
		val = 1
	}
	if err := p.transmit([]byte{GS, 'h', val}); err != nil {
		return err
	}
	p.barcodeHeight = int(val)
	return nil
}

// TestPage asks the device to print its built-in test page: 26 text lines
// plus a trailing blank line.
func (p *Printer) TestPage() error {
	if err := p.transmit([]byte{DC2, 'T'}); err != nil {
		return err
	}
	p.pending = p.dotPrintTime*24*26 + p.dotFeedTime*(6*26+30)
	return nil
}

// Flush sends a form feed.
func (p *Printer) Flush() error {
	return p.transmit([]byte{FF})
}

// durationByte converts d to a count of unit, failing if the count
// overflows the single protocol byte.
func durationByte(d, unit time.Duration, field string) (byte, error) {
	v := d / unit
	if v < 0 || v > 0xFF {
		return 0, fmt.Errorf("%w: %s %v exceeds %v", ErrEncoding, field, d, 0xFF*unit)
	}
	return byte(v), nil
}
