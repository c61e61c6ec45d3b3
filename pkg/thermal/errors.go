package thermal

import "errors"

// Error kinds returned by the driver. Callers match them with errors.Is.
var (
	// ErrTransport means the underlying port failed or wrote fewer bytes
	// than requested. The driver never retries; the device may have
	// received a partial command, so callers should re-Init before
	// issuing another job.
	ErrTransport = errors.New("thermal: transport failure")

	// ErrEncoding means a numeric field (duration, payload length, dot
	// count) does not fit the single-byte protocol field it must occupy.
	ErrEncoding = errors.New("thermal: value does not fit protocol field")

	// ErrPrecondition means caller-supplied input was inconsistent, such
	// as bitmap dimensions that disagree with the bit data length.
	ErrPrecondition = errors.New("thermal: precondition violated")
)
