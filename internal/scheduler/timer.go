package scheduler

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// StatsTimer is the optional periodic stats timer source from spec.md
// §4.8, backed by timerfd so it is just another epoll-readable fd
// rather than a separate ticker goroutine.
type StatsTimer struct {
	FD int
}

// NewStatsTimer creates a timerfd that fires every period starting
// after period.
func NewStatsTimer(period time.Duration) (*StatsTimer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("scheduler: timerfd_create: %w", err)
	}
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(int64(period)),
		Value:    unix.NsecToTimespec(int64(period)),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("scheduler: timerfd_settime: %w", err)
	}
	return &StatsTimer{FD: fd}, nil
}

// Ack drains the expiration counter. Call from OnReadable; timerfd
// reads an 8-byte counter of the number of expirations since the last
// read.
func (t *StatsTimer) Ack() (uint64, error) {
	var buf [8]byte
	n, err := unix.Read(t.FD, buf[:])
	if err != nil {
		return 0, fmt.Errorf("scheduler: read timerfd: %w", err)
	}
	if n != 8 {
		return 0, fmt.Errorf("scheduler: short timerfd read: %d bytes", n)
	}
	count := uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 | uint64(buf[3])<<24 |
		uint64(buf[4])<<32 | uint64(buf[5])<<40 | uint64(buf[6])<<48 | uint64(buf[7])<<56
	return count, nil
}

func (t *StatsTimer) Close() error {
	return unix.Close(t.FD)
}
