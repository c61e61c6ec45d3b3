package thermal

// Control bytes and command prefixes. These values are fixed by the device
// protocol and must match exactly.
const (
	LF  byte = 0x0A // line feed
	FF  byte = 0x0C // form feed / flush
	CR  byte = 0x0D // carriage return, dropped on write
	DC2 byte = 0x12 // legacy raster / test page prefix
	ESC byte = 0x1B // command prefix
	FS  byte = 0x1C // reserved
	GS  byte = 0x1D // modern command prefix
)

// Barcode selects a symbology for PrintBarcode. The raw value is the legacy
// command code; firmware 264 and later shifts it by 65 on the wire.
type Barcode byte

const (
	UPCA Barcode = iota
	UPCE
	EAN13
	EAN8
	Code39
	ITF
	Codabar
	Code93
	Code128
)

// Underline selects the underline weight for SetUnderline.
type Underline byte

const (
	UnderlineNone Underline = iota
	UnderlineSingle
	UnderlineDouble
)
