package thermal

import "time"

// Port is the transport capability the driver writes through. The printer
// offers no status feedback, so the driver paces itself by calling Wait with
// a predicted busy duration before every transmission.
//
// A Port must be exclusively owned by one Printer. Interleaving writes from
// a second writer corrupts the protocol stream.
type Port interface {
	// WriteBytes writes all of p or returns an error.
	WriteBytes(p []byte) error

	// Wait blocks the caller for at least d.
	Wait(d time.Duration) error
}
