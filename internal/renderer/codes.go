package renderer

import (
	"fmt"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/skip2/go-qrcode"
)

// RenderBarcode rasterizes value as a barcode image sized for the paper.
// This is the path for printing symbologies the device firmware cannot
// draw itself; device-native barcodes go through the driver's
// PrintBarcode instead.
func (r *Renderer) RenderBarcode(value, format string, height int) (*Bitmap, error) {
	if value == "" {
		return nil, fmt.Errorf("empty barcode value")
	}
	if height == 0 {
		height = 80
	}

	var img barcode.Barcode
	var err error

	switch format {
	case "CODE39":
		img, err = code39.Encode(value, false, false)
	case "EAN13", "EAN8":
		img, err = ean.Encode(value)
	case "CODE128", "":
		img, err = code128.Encode(value)
	default:
		return nil, fmt.Errorf("unsupported barcode format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	img, err = barcode.Scale(img, r.width, height)
	if err != nil {
		return nil, err
	}

	return ToBitmap(img, 0), nil
}

// RenderQRCode rasterizes value as a QR code. Size is the QR image edge in
// dots; zero fits the paper width.
func (r *Renderer) RenderQRCode(value string, size int, level string) (*Bitmap, error) {
	if value == "" {
		return nil, fmt.Errorf("empty QR value")
	}

	ec := qrcode.Medium
	switch level {
	case "L":
		ec = qrcode.Low
	case "Q":
		ec = qrcode.High
	case "H":
		ec = qrcode.Highest
	}

	qr, err := qrcode.New(value, ec)
	if err != nil {
		return nil, err
	}

	if size <= 0 || size > r.width {
		size = r.width
	}

	return ToBitmap(qr.Image(size), 0), nil
}
