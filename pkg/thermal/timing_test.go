package thermal

import (
	"testing"
	"time"
)

func TestByteTime(t *testing.T) {
	tests := []struct {
		baud int
		want time.Duration
	}{
		{19200, 573 * time.Microsecond},
		{9600, 1146 * time.Microsecond},
		{115200, 96 * time.Microsecond},
	}

	for _, tt := range tests {
		if got := byteTime(tt.baud); got != tt.want {
			t.Errorf("byteTime(%d) = %v, want %v", tt.baud, got, tt.want)
		}
	}
}

func TestFeedDuration_Monotonic(t *testing.T) {
	feed := 2100 * time.Microsecond

	base := feedDuration(24, 6, feed)
	if base <= 0 {
		t.Fatalf("feed duration %v not positive", base)
	}
	if taller := feedDuration(25, 6, feed); taller <= base {
		t.Errorf("taller chars did not increase feed duration: %v <= %v", taller, base)
	}
	if spaced := feedDuration(24, 7, feed); spaced <= base {
		t.Errorf("wider spacing did not increase feed duration: %v <= %v", spaced, base)
	}
}

func TestTextLineDuration_Monotonic(t *testing.T) {
	print := 25 * time.Millisecond
	feed := 2100 * time.Microsecond

	base := textLineDuration(24, 6, print, feed)
	if base <= 0 {
		t.Fatalf("text line duration %v not positive", base)
	}
	if taller := textLineDuration(25, 6, print, feed); taller <= base {
		t.Errorf("taller chars did not increase duration: %v <= %v", taller, base)
	}
	if spaced := textLineDuration(24, 7, print, feed); spaced <= base {
		t.Errorf("wider spacing did not increase duration: %v <= %v", spaced, base)
	}
}

func TestTextLineCostsMoreThanFeed(t *testing.T) {
	print := 25 * time.Millisecond
	feed := 2100 * time.Microsecond

	if textLineDuration(24, 6, print, feed) <= feedDuration(24, 6, feed) {
		t.Error("printing a line should cost more than feeding past it")
	}
}
