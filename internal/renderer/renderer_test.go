package renderer

import (
	"image"
	"image/color"
	"testing"
)

func TestToBitmap_Packing(t *testing.T) {
	// 2x2 image, black on the diagonal: bit sequence 10 01 packs to a
	// single byte 0b10010000.
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 255})
	img.SetGray(0, 1, color.Gray{Y: 255})
	img.SetGray(1, 1, color.Gray{Y: 0})

	bm := ToBitmap(img, 0)

	if bm.Width != 2 || bm.Height != 2 {
		t.Fatalf("bitmap is %dx%d, want 2x2", bm.Width, bm.Height)
	}
	if len(bm.Bits) != 1 {
		t.Fatalf("bitmap is %d bytes, want 1", len(bm.Bits))
	}
	if bm.Bits[0] != 0b10010000 {
		t.Errorf("packed byte = %08b, want 10010000", bm.Bits[0])
	}
}

func TestToBitmap_BitLength(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 13, 3))
	bm := ToBitmap(img, 0)

	if want := (13*3 + 7) / 8; len(bm.Bits) != want {
		t.Errorf("bitmap is %d bytes, want %d", len(bm.Bits), want)
	}
}

func TestToBitmap_Resize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 50))
	bm := ToBitmap(img, 384)

	if bm.Width != 384 {
		t.Errorf("resized width = %d, want 384", bm.Width)
	}
	if bm.Height == 0 {
		t.Error("resized height is zero")
	}
}

func TestRenderText(t *testing.T) {
	r, err := New(384)
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}

	bm, err := r.RenderText("Hello World", 24, "left")
	if err != nil {
		t.Fatalf("RenderText failed: %v", err)
	}

	if bm.Width != 384 {
		t.Errorf("text bitmap width = %d, want 384", bm.Width)
	}
	if bm.Height == 0 {
		t.Error("text bitmap has zero height")
	}

	// Some dot must be set, or the text did not render.
	any := false
	for _, b := range bm.Bits {
		if b != 0 {
			any = true
			break
		}
	}
	if !any {
		t.Error("rendered text produced a blank bitmap")
	}
}

func TestRenderBarcode(t *testing.T) {
	r, _ := New(384)

	bm, err := r.RenderBarcode("HELLO-123", "CODE128", 80)
	if err != nil {
		t.Fatalf("RenderBarcode failed: %v", err)
	}
	if bm.Width != 384 || bm.Height != 80 {
		t.Errorf("barcode bitmap is %dx%d, want 384x80", bm.Width, bm.Height)
	}
}

func TestRenderBarcode_UnsupportedFormat(t *testing.T) {
	r, _ := New(384)

	if _, err := r.RenderBarcode("123", "AZTEC", 80); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRenderQRCode(t *testing.T) {
	r, _ := New(384)

	bm, err := r.RenderQRCode("https://example.com", 0, "M")
	if err != nil {
		t.Fatalf("RenderQRCode failed: %v", err)
	}
	if bm.Width != 384 {
		t.Errorf("QR bitmap width = %d, want 384", bm.Width)
	}
}
