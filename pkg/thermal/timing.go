package thermal

import "time"

// The printer reports nothing back to the host, so the only way to avoid
// overrunning its buffer is to predict how long each operation keeps the
// mechanism busy and wait that long before sending more. These functions are
// that prediction model.

// feedDuration is the cost of an empty line feed: the head advances the full
// line height without printing.
func feedDuration(charHeight, interLineSpacing int, dotFeedTime time.Duration) time.Duration {
	return time.Duration(charHeight+interLineSpacing) * dotFeedTime
}

// textLineDuration is the cost of printing one text line and advancing to
// the next: the character rows burn, the spacing rows only feed.
func textLineDuration(charHeight, interLineSpacing int, dotPrintTime, dotFeedTime time.Duration) time.Duration {
	return time.Duration(charHeight)*dotPrintTime +
		time.Duration(interLineSpacing)*dotFeedTime
}

// byteTime is the time one byte occupies the wire at the given baud rate.
// A byte is 11 bits on the line: 8 data bits, start, stop, and one margin
// bit. Rounded up so the estimate never undershoots.
func byteTime(baud int) time.Duration {
	us := (11*1_000_000 + baud - 1) / baud
	return time.Duration(us) * time.Microsecond
}
