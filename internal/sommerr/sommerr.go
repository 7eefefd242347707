// Package sommerr defines the sentinel error kinds from the error-handling
// design: callers use errors.Is against these to select between
// disconnect-one-client, abort-the-process, and warn-and-continue policies.
package sommerr

import "errors"

var (
	// ErrGuestProtocol is a protocol violation by a guest client: wrong
	// resource type, out-of-range enum, reference to an unknown object.
	// Policy: post a protocol error on the offending resource and
	// disconnect that client only; never fatal.
	ErrGuestProtocol = errors.New("sommelier: guest protocol violation")

	// ErrHostProtocol is a protocol violation by the host: an unexpected
	// event or a version mismatch. Policy: fatal, abort the process.
	ErrHostProtocol = errors.New("sommelier: host protocol violation")

	// ErrHostConnLost is a Unix I/O error on the host connection (EPIPE,
	// ECONNRESET). Policy: flush pending guest messages, exit 0.
	ErrHostConnLost = errors.New("sommelier: host connection lost")

	// ErrX11ConnLost is a Unix I/O error (hangup) on the X11 connection.
	// Policy: fatal, abort.
	ErrX11ConnLost = errors.New("sommelier: x11 connection lost")

	// ErrAllocation is an allocation failure (OOM). Policy: post
	// wl_client_post_no_memory to the affected client; recoverable if the
	// allocation was client-scoped.
	ErrAllocation = errors.New("sommelier: allocation failure")

	// ErrBufferTranslation is a buffer translation failure (e.g. dmabuf
	// import failed). Policy: fall back to attaching the shm buffer
	// directly and clear the shaped-content flag; nothing is reported to
	// the client.
	ErrBufferTranslation = errors.New("sommelier: buffer translation failure")

	// ErrClipboardIO is a clipboard pipe I/O error (writer closed early).
	// Policy: cancel the transfer, send SelectionNotify with property=None.
	ErrClipboardIO = errors.New("sommelier: clipboard i/o error")

	// ErrInvalidConfig is an invalid configuration value. Policy: warn and
	// continue, unless the missing value is required for the requested
	// mode (fatal at startup in that case).
	ErrInvalidConfig = errors.New("sommelier: invalid configuration")
)
