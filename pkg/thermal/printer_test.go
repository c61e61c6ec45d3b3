package thermal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakePort records writes and waits without touching hardware or sleeping.
type fakePort struct {
	writes [][]byte
	waits  []time.Duration
	failAt int // index of the write that fails, -1 for never
	n      int
}

func newFakePort() *fakePort {
	return &fakePort{failAt: -1}
}

func (f *fakePort) WriteBytes(p []byte) error {
	if f.n == f.failAt {
		f.n++
		return errors.New("device unplugged")
	}
	f.n++
	f.writes = append(f.writes, append([]byte(nil), p...))
	return nil
}

func (f *fakePort) Wait(d time.Duration) error {
	if d > 0 {
		f.waits = append(f.waits, d)
	}
	return nil
}

func newTestPrinter(cfg Config) (*Printer, *fakePort) {
	port := newFakePort()
	return NewWithConfig(port, cfg), port
}

func TestNew_StartupSettle(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.Feed(1); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}

	if len(port.waits) == 0 || port.waits[0] != 500*time.Millisecond {
		t.Errorf("first command did not honor the startup settle wait: %v", port.waits)
	}
	if want := []byte{ESC, 'd', 1}; !bytes.Equal(port.writes[0], want) {
		t.Errorf("first write = %v, want %v", port.writes[0], want)
	}
}

func TestFeed_ZeroIsNoOp(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.Feed(0); err != nil {
		t.Fatalf("Feed(0) failed: %v", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("Feed(0) wrote %d commands, want 0", len(port.writes))
	}
	if len(port.waits) != 0 {
		t.Errorf("Feed(0) consumed waits: %v", port.waits)
	}
	if p.pending != 500*time.Millisecond {
		t.Errorf("Feed(0) changed pending timeout to %v", p.pending)
	}
}

func TestFeed_LegacyFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirmwareVersion = 260
	p, port := newTestPrinter(cfg)

	if err := p.Feed(3); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}

	if len(port.writes) != 3 {
		t.Fatalf("legacy feed wrote %d commands, want 3", len(port.writes))
	}
	for i, w := range port.writes {
		if !bytes.Equal(w, []byte{LF}) {
			t.Errorf("write %d = %v, want single LF", i, w)
		}
	}
}

func TestWriteChar_DropsCarriageReturn(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.WriteChar(CR); err != nil {
		t.Fatalf("WriteChar(CR) failed: %v", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("carriage return reached the wire: %v", port.writes)
	}
}

func TestWrite_LineEndCharging(t *testing.T) {
	cfg := DefaultConfig()
	p, _ := newTestPrinter(cfg)

	if err := p.Write("hi\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// The LF ends a line with printed characters on it, so the full text
	// line cost is charged on top of the byte's wire time.
	want := byteTime(cfg.Baud) +
		textLineDuration(24, 6, cfg.DotPrintTime, cfg.DotFeedTime)
	if p.pending != want {
		t.Errorf("pending after text line = %v, want %v", p.pending, want)
	}
}

func TestWrite_ConsecutiveFeedsChargeFeedCost(t *testing.T) {
	cfg := DefaultConfig()
	p, _ := newTestPrinter(cfg)

	if err := p.Write("\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// At line start the previous byte is already LF, so only the feed
	// cost applies, not a full text line.
	want := byteTime(cfg.Baud) + feedDuration(24, 6, cfg.DotFeedTime)
	if p.pending != want {
		t.Errorf("pending after lone feed = %v, want %v", p.pending, want)
	}
}

func TestWrite_StopsAtTransportError(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())
	port.failAt = 2

	err := p.Write("abcd")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got %v, want ErrTransport", err)
	}
	if len(port.writes) != 2 {
		t.Errorf("wrote %d bytes before failing, want 2", len(port.writes))
	}
}

func TestInit_CommandSequence(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	want := [][]byte{
		{ESC, '@'},
		{ESC, 'D', 4, 8, 12, 16, 20, 24, 28, 0},
		{ESC, '7', 11, 12, 4},
	}
	if len(port.writes) != len(want) {
		t.Fatalf("Init wrote %d commands, want %d: %v", len(port.writes), len(want), port.writes)
	}
	for i, w := range want {
		if !bytes.Equal(port.writes[i], w) {
			t.Errorf("Init command %d = %v, want %v", i, port.writes[i], w)
		}
	}
}

func TestInit_LegacySkipsTabStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirmwareVersion = 260
	p, port := newTestPrinter(cfg)

	if err := p.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	for _, w := range port.writes {
		if len(w) > 1 && w[0] == ESC && w[1] == 'D' {
			t.Errorf("legacy firmware received tab stop command: %v", w)
		}
	}
}

func TestPrintBarcode_ModernDialect(t *testing.T) {
	cfg := DefaultConfig()
	p, port := newTestPrinter(cfg)

	if err := p.PrintBarcode("123456789012", UPCA); err != nil {
		t.Fatalf("PrintBarcode failed: %v", err)
	}

	want := [][]byte{
		{ESC, 'd', 1},
		{GS, 'H', 2},
		{GS, 'w', 3},
		{GS, 'k', 65, 12},
		[]byte("123456789012"),
	}
	if len(port.writes) != len(want) {
		t.Fatalf("wrote %d commands, want %d: %v", len(port.writes), len(want), port.writes)
	}
	for i, w := range want {
		if !bytes.Equal(port.writes[i], w) {
			t.Errorf("command %d = %v, want %v", i, port.writes[i], w)
		}
	}

	if wantPending := time.Duration(50+40) * cfg.DotPrintTime; p.pending != wantPending {
		t.Errorf("pending after barcode = %v, want %v", p.pending, wantPending)
	}
}

func TestPrintBarcode_LegacyDialect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirmwareVersion = 260
	p, port := newTestPrinter(cfg)

	if err := p.PrintBarcode("ABC", Code39); err != nil {
		t.Fatalf("PrintBarcode failed: %v", err)
	}

	// Legacy selects the raw symbology code and null-terminates.
	want := [][]byte{
		{LF},
		{GS, 'H', 2},
		{GS, 'w', 3},
		{GS, 'k', 4},
		[]byte("ABC"),
		{0},
	}
	if len(port.writes) != len(want) {
		t.Fatalf("wrote %d commands, want %d: %v", len(port.writes), len(want), port.writes)
	}
	for i, w := range want {
		if !bytes.Equal(port.writes[i], w) {
			t.Errorf("command %d = %v, want %v", i, port.writes[i], w)
		}
	}
}

func TestPrintBarcode_PayloadTooLong(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	err := p.PrintBarcode(strings.Repeat("1", 256), Code128)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("got %v, want ErrEncoding", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("oversized barcode reached the wire: %v", port.writes)
	}
}

func TestPrintBitmap_SingleChunk(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	bits := make([]byte, 384*5/8)
	if err := p.PrintBitmap(384, 5, bits); err != nil {
		t.Fatalf("PrintBitmap failed: %v", err)
	}

	// One header, then all five rows.
	if len(port.writes) != 6 {
		t.Fatalf("wrote %d commands, want 6", len(port.writes))
	}
	wantHeader := []byte{GS, 'v', 0, 0, 48, 0, 5, 0}
	if !bytes.Equal(port.writes[0], wantHeader) {
		t.Errorf("header = %v, want %v", port.writes[0], wantHeader)
	}
	for i, w := range port.writes[1:] {
		if len(w) != 48 {
			t.Errorf("row %d is %d bytes, want 48", i, len(w))
		}
	}
}

func TestPrintBitmap_RowPacing(t *testing.T) {
	cfg := DefaultConfig()
	p, port := newTestPrinter(cfg)

	bits := make([]byte, 8*3/8)
	if err := p.PrintBitmap(8, 3, bits); err != nil {
		t.Fatalf("PrintBitmap failed: %v", err)
	}

	// Rows after the first are paced by the dot print time; the header
	// itself consumed the startup settle.
	for _, d := range port.waits[1:] {
		if d != cfg.DotPrintTime {
			t.Errorf("row wait = %v, want %v", d, cfg.DotPrintTime)
		}
	}
	if p.pending != cfg.DotPrintTime {
		t.Errorf("pending after bitmap = %v, want %v", p.pending, cfg.DotPrintTime)
	}
}

func TestPrintBitmapContext_CancelledBeforeFirstChunk(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bits := make([]byte, 8*3/8)
	err := p.PrintBitmapContext(ctx, 8, 3, bits)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("cancelled print reached the wire: %v", port.writes)
	}
}

func TestPrintBitmap_BadDimensions(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	err := p.PrintBitmap(8, 8, make([]byte, 7))
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("got %v, want ErrPrecondition", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("invalid bitmap reached the wire: %v", port.writes)
	}
}

func TestSetHeatConfig_Encoding(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.SetHeatConfig(11, 120*time.Microsecond, 40*time.Microsecond); err != nil {
		t.Fatalf("SetHeatConfig failed: %v", err)
	}

	want := []byte{ESC, '7', 11, 12, 4}
	if !bytes.Equal(port.writes[0], want) {
		t.Errorf("heat config = %v, want %v", port.writes[0], want)
	}
}

func TestSetHeatConfig_Overflow(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	// 3ms is 300 ten-microsecond units, past the single-byte field.
	err := p.SetHeatConfig(11, 3*time.Millisecond, 40*time.Microsecond)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("got %v, want ErrEncoding", err)
	}
	if len(port.writes) != 0 {
		t.Errorf("overflowing config reached the wire: %v", port.writes)
	}
}

func TestSetPrintDensity_Encoding(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.SetPrintDensity(10, 500*time.Microsecond); err != nil {
		t.Fatalf("SetPrintDensity failed: %v", err)
	}

	// Break time of 500µs is 2 units of 250µs, packed into bits 5-7.
	want := []byte{ESC, '#', 10 | 2<<5}
	if !bytes.Equal(port.writes[0], want) {
		t.Errorf("density command = %v, want %v", port.writes[0], want)
	}

	if err := p.SetPrintDensity(10, 100*time.Millisecond); !errors.Is(err, ErrEncoding) {
		t.Errorf("got %v, want ErrEncoding for oversized break time", err)
	}
}

func TestSetUnderline(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.SetUnderline(UnderlineSingle); err != nil {
		t.Fatalf("SetUnderline failed: %v", err)
	}
	if want := []byte{ESC, '-', 1}; !bytes.Equal(port.writes[0], want) {
		t.Errorf("underline command = %v, want %v", port.writes[0], want)
	}
}

func TestSetBarcodeHeight_MinimumOneDot(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.SetBarcodeHeight(0); err != nil {
		t.Fatalf("SetBarcodeHeight failed: %v", err)
	}
	if want := []byte{GS, 'h', 1}; !bytes.Equal(port.writes[0], want) {
		t.Errorf("barcode height command = %v, want %v", port.writes[0], want)
	}
}

func TestWake_ModernFirmware(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.Wake(); err != nil {
		t.Fatalf("Wake failed: %v", err)
	}

	want := [][]byte{
		{0xFF},
		{ESC, '8', 0, 0},
	}
	if len(port.writes) != len(want) {
		t.Fatalf("wrote %d commands, want %d", len(port.writes), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(port.writes[i], w) {
			t.Errorf("command %d = %v, want %v", i, port.writes[i], w)
		}
	}
}

func TestWake_LegacyNullPulses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirmwareVersion = 264
	p, port := newTestPrinter(cfg)

	if err := p.Wake(); err != nil {
		t.Fatalf("Wake failed: %v", err)
	}

	// Wake byte plus ten null pulses.
	if len(port.writes) != 11 {
		t.Fatalf("wrote %d commands, want 11", len(port.writes))
	}
	for i, w := range port.writes[1:] {
		if !bytes.Equal(w, []byte{0}) {
			t.Errorf("pulse %d = %v, want single null", i, w)
		}
	}
}

func TestTestPage_Timing(t *testing.T) {
	cfg := DefaultConfig()
	p, port := newTestPrinter(cfg)

	if err := p.TestPage(); err != nil {
		t.Fatalf("TestPage failed: %v", err)
	}

	if want := []byte{DC2, 'T'}; !bytes.Equal(port.writes[0], want) {
		t.Errorf("test page command = %v, want %v", port.writes[0], want)
	}
	want := cfg.DotPrintTime*24*26 + cfg.DotFeedTime*(6*26+30)
	if p.pending != want {
		t.Errorf("pending after test page = %v, want %v", p.pending, want)
	}
}

func TestWait_ResetsPending(t *testing.T) {
	p, port := newTestPrinter(DefaultConfig())

	if err := p.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if p.pending != 0 {
		t.Errorf("pending after Wait = %v, want 0", p.pending)
	}
	if len(port.waits) != 1 || port.waits[0] != 500*time.Millisecond {
		t.Errorf("recorded waits = %v, want the startup settle", port.waits)
	}
}
