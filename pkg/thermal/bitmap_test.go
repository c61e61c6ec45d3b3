package thermal

import (
	"bytes"
	"errors"
	"testing"
)

func flatten(rows [][]byte) []byte {
	var out []byte
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func TestPackRows_IdentityAtByteAlignedWidth(t *testing.T) {
	// 64-bit rows are 8 whole bytes, so repacking must reproduce the
	// source bytes exactly.
	src := make([]byte, 64)
	for i := range src {
		src[i] = byte(i)
	}

	got := flatten(packRows(src, len(src)*8, 64))
	if !bytes.Equal(got, src) {
		t.Errorf("repacked bytes differ from source:\ngot  %v\nwant %v", got, src)
	}
}

func TestPackRows_CrossByteBoundary(t *testing.T) {
	// 15-bit rows straddle byte boundaries; the final 2-bit row packs
	// into a single byte with its two bits at the MSB end.
	src := []byte{0, 1, 2, 3}
	want := []byte{0, 0, 129, 0, 192}

	got := flatten(packRows(src, 32, 15))
	if !bytes.Equal(got, want) {
		t.Errorf("packed bytes = %v, want %v", got, want)
	}
}

func TestPackRows_PaddingBitsZero(t *testing.T) {
	// 13-dot rows leave 3 padding bits in the second byte; they must
	// stay zero even when the source is all ones.
	src := bytes.Repeat([]byte{0xFF}, 7) // 56 bits, 4 full 13-bit rows
	rows := packRows(src, 13*4, 13)

	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	for i, row := range rows {
		if len(row) != 2 {
			t.Fatalf("row %d is %d bytes, want 2", i, len(row))
		}
		if row[1]&0x07 != 0 {
			t.Errorf("row %d padding bits set: %08b", i, row[1])
		}
	}
}

func TestPackRows_RoundTrip(t *testing.T) {
	// For byte-aligned widths, unpacking the packed rows MSB-first must
	// give back the original bit sequence.
	src := []byte{0xA5, 0x3C, 0xFF, 0x00, 0x81, 0x7E}
	rows := packRows(src, len(src)*8, 16)

	got := flatten(rows)
	if !bytes.Equal(got, src) {
		t.Errorf("round trip changed bits:\ngot  %v\nwant %v", got, src)
	}
}

func TestChunkBitmap_SingleChunk(t *testing.T) {
	// A 384x5 bitmap fits one chunk when the buffer holds 200 rows at
	// that width, so exactly one header precedes all five rows.
	bits := make([]byte, 384*5/8)
	chunks, err := chunkBitmap(384, 5, bits, 9600)
	if err != nil {
		t.Fatalf("chunkBitmap failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	wantHeader := []byte{GS, 'v', 0, 0, 48, 0, 5, 0}
	if !bytes.Equal(chunks[0].header, wantHeader) {
		t.Errorf("header = %v, want %v", chunks[0].header, wantHeader)
	}
	if len(chunks[0].rows) != 5 {
		t.Errorf("got %d rows, want 5", len(chunks[0].rows))
	}
	for i, row := range chunks[0].rows {
		if len(row) != 48 {
			t.Errorf("row %d is %d bytes, want 48", i, len(row))
		}
	}
}

func TestChunkBitmap_SplitsAtCapacity(t *testing.T) {
	// 450 rows at 384 dots with a 9600-byte buffer is 200 rows per
	// chunk: two full chunks and a 50-row remainder.
	bits := make([]byte, 384*450/8)
	chunks, err := chunkBitmap(384, 450, bits, 9600)
	if err != nil {
		t.Fatalf("chunkBitmap failed: %v", err)
	}

	wantRows := []int{200, 200, 50}
	if len(chunks) != len(wantRows) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(wantRows))
	}
	for i, c := range chunks {
		if len(c.rows) != wantRows[i] {
			t.Errorf("chunk %d has %d rows, want %d", i, len(c.rows), wantRows[i])
		}
		lo, hi := c.header[6], c.header[7]
		if got := int(lo) | int(hi)<<8; got != wantRows[i] {
			t.Errorf("chunk %d header declares %d rows, want %d", i, got, wantRows[i])
		}
	}
}

func TestChunkBitmap_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		bits     []byte
		capacity int
	}{
		{"short data", 8, 8, make([]byte, 7), 512},
		{"long data", 8, 8, make([]byte, 9), 512},
		{"zero width", 0, 8, nil, 512},
		{"row wider than buffer", 9, 1, make([]byte, 2), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chunkBitmap(tt.width, tt.height, tt.bits, tt.capacity)
			if !errors.Is(err, ErrPrecondition) {
				t.Errorf("got %v, want ErrPrecondition", err)
			}
		})
	}
}
