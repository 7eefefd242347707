package scheduler

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// SignalSource wraps a signalfd delivering SIGCHLD/SIGUSR1 (spec.md
// §4.8) as a regular epoll-readable Source, keeping signal handling
// inside the same single-threaded dispatch as every other fd instead of
// a separate goroutine racing the event loop.
type SignalSource struct {
	FD int
}

// NewSignalSource blocks the given signals in the calling thread's signal
// mask (PthreadSigmask) and opens a signalfd for them.
func NewSignalSource(sigs ...unix.Signal) (*SignalSource, error) {
	var mask unix.Sigset_t
	for _, s := range sigs {
		addSignal(&mask, s)
	}
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, nil); err != nil {
		return nil, fmt.Errorf("scheduler: sigprocmask: %w", err)
	}
	fd, err := unix.Signalfd(-1, &mask, unix.SFD_CLOEXEC|unix.SFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("scheduler: signalfd: %w", err)
	}
	return &SignalSource{FD: fd}, nil
}

// addSignal sets bit (s-1) in the sigset, matching the kernel's sigset_t
// layout (signals are 1-indexed). x/sys/unix does not export a
// sigaddset helper for a caller-constructed Sigset_t, so the bit is set
// directly against its Val []uint64 words.
func addSignal(mask *unix.Sigset_t, s unix.Signal) {
	bit := uint(s) - 1
	mask.Val[bit/64] |= 1 << (bit % 64)
}

// Read drains one pending siginfo from the signalfd. Call from
// OnReadable; signalfd reads are fixed-size and never partial once
// readable.
func (s *SignalSource) Read() (unix.SignalfdSiginfo, error) {
	var info unix.SignalfdSiginfo
	size := int(unsafe.Sizeof(info))
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&info)), size)
	n, err := unix.Read(s.FD, buf)
	if err != nil {
		return info, fmt.Errorf("scheduler: read signalfd: %w", err)
	}
	if n != size {
		return info, fmt.Errorf("scheduler: short signalfd read: %d bytes", n)
	}
	return info, nil
}

func (s *SignalSource) Close() error {
	return unix.Close(s.FD)
}
