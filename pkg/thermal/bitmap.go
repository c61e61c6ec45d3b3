package thermal

import "fmt"

// rasterChunk is one device-level raster transmission: a GS v 0 header
// followed by packed row bytes. Chunks are sized so a single transmission
// never exceeds the printer's internal raster buffer.
type rasterChunk struct {
	header []byte
	rows   [][]byte
}

// packRows slices the first nbits bits of src into rows of rowBits bits and
// packs each row MSB-first into ceil(rowBits/8) bytes. Bit index idx within
// a row lands in byte idx/8 at position 7-idx%8, matching the print head's
// left-to-right scan. A final short row packs into fewer bytes; padding bits
// past the row width stay zero.
func packRows(src []byte, nbits, rowBits int) [][]byte {
	var rows [][]byte
	for off := 0; off < nbits; off += rowBits {
		n := rowBits
		if off+n > nbits {
			n = nbits - off
		}
		row := make([]byte, (n+7)/8)
		for idx := 0; idx < n; idx++ {
			i := off + idx
			if src[i/8]>>(7-i%8)&1 == 1 {
				row[idx/8] |= 1 << (7 - idx%8)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// chunkBitmap repacks a width x height monochrome bitmap (row-major bits,
// MSB-first, exactly ceil(width*height/8) bytes) into raster chunks of at
// most capacity bytes of row data each.
func chunkBitmap(width, height int, bits []byte, capacity int) ([]rasterChunk, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: bitmap dimensions %dx%d", ErrPrecondition, width, height)
	}
	if want := (width*height + 7) / 8; len(bits) != want {
		return nil, fmt.Errorf("%w: bitmap data is %d bytes, want %d for %dx%d",
			ErrPrecondition, len(bits), want, width, height)
	}

	wBytes := (width + 7) / 8
	if wBytes > 0xFF {
		return nil, fmt.Errorf("%w: row width %d dots", ErrEncoding, width)
	}

	// Rows per chunk is bounded by the device buffer, not by the bitmap.
	maxRows := capacity * 8 / width
	if maxRows < 1 {
		return nil, fmt.Errorf("%w: one %d-dot row exceeds the %d-byte buffer",
			ErrPrecondition, width, capacity)
	}

	rows := packRows(bits, width*height, width)

	var chunks []rasterChunk
	for start := 0; start < height; start += maxRows {
		n := height - start
		if n > maxRows {
			n = maxRows
		}
		chunks = append(chunks, rasterChunk{
			header: []byte{GS, 'v', 0, 0, byte(wBytes), 0, byte(n), byte(n >> 8)},
			rows:   rows[start : start+n],
		})
	}
	return chunks, nil
}
