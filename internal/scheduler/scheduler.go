// Package scheduler implements sommelier's single event loop (spec.md
// §4.8): one epoll instance multiplexing the host connection fd, every
// guest client fd, the X11 connection fd, clipboard pipe fds, signalfds
// for SIGCHLD/SIGUSR1, a display-ready fd during Xwayland startup, and
// an optional stats timer. Per spec.md §5, there is exactly one
// executing task at a time — no goroutines run callbacks concurrently
// with the loop.
package scheduler

import (
	"fmt"
	"sort"

	"golang.org/x/sys/unix"
)

// Source is one fd the loop watches. OnReadable/OnWritable run
// synchronously from RunOnce; neither may block (spec.md §4.8: "blocking
// operations are forbidden inside callbacks").
type Source struct {
	FD         int
	Name       string
	OnReadable func()
	OnWritable func()

	writable bool
}

// Loop owns one epoll fd and the registered sources.
type Loop struct {
	epfd    int
	sources map[int]*Source
}

// New creates an empty loop.
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("scheduler: epoll_create1: %w", err)
	}
	return &Loop{epfd: epfd, sources: make(map[int]*Source)}, nil
}

// Close releases the epoll fd. Registered source fds are the caller's
// to close.
func (l *Loop) Close() error {
	return unix.Close(l.epfd)
}

// Add registers s for readability (and writability, if OnWritable is
// set) interest.
func (l *Loop) Add(s *Source) error {
	if _, exists := l.sources[s.FD]; exists {
		return fmt.Errorf("scheduler: fd %d already registered", s.FD)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(s.FD)}
	if s.OnWritable != nil {
		ev.Events |= unix.EPOLLOUT
		s.writable = true
	}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, s.FD, &ev); err != nil {
		return fmt.Errorf("scheduler: epoll_ctl add fd=%d (%s): %w", s.FD, s.Name, err)
	}
	l.sources[s.FD] = s
	return nil
}

// SetWritable toggles EPOLLOUT interest for fd, used when a connection's
// write buffer transitions between empty and non-empty (spec.md §4.8:
// "host connection fd ... writable -> flush").
func (l *Loop) SetWritable(fd int, want bool) error {
	s, ok := l.sources[fd]
	if !ok {
		return fmt.Errorf("scheduler: unknown fd %d", fd)
	}
	if want == s.writable {
		return nil
	}
	events := uint32(unix.EPOLLIN)
	if want {
		events |= unix.EPOLLOUT
	}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Events: events, Fd: int32(fd)}); err != nil {
		return fmt.Errorf("scheduler: epoll_ctl mod fd=%d: %w", fd, err)
	}
	s.writable = want
	return nil
}

// Remove unregisters fd. The caller still owns closing it.
func (l *Loop) Remove(fd int) error {
	if _, ok := l.sources[fd]; !ok {
		return nil
	}
	delete(l.sources, fd)
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("scheduler: epoll_ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Len reports how many sources are registered, mostly for tests.
func (l *Loop) Len() int { return len(l.sources) }

// RunOnce blocks up to timeoutMillis (-1 for indefinitely) waiting for
// events and dispatches every ready source once, lowest fd first so
// dispatch order stays deterministic within a single pass (spec.md §5:
// "all mutation of all state ... occurs from callbacks dispatched by the
// event loop", single-threaded).
func (l *Loop) RunOnce(timeoutMillis int) error {
	events := make([]unix.EpollEvent, len(l.sources)+1)
	n, err := unix.EpollWait(l.epfd, events, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("scheduler: epoll_wait: %w", err)
	}

	ready := events[:n]
	sort.Slice(ready, func(i, j int) bool { return ready[i].Fd < ready[j].Fd })

	for _, ev := range ready {
		s, ok := l.sources[int(ev.Fd)]
		if !ok {
			continue
		}
		if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 && s.OnReadable != nil {
			s.OnReadable()
		}
		if ev.Events&unix.EPOLLOUT != 0 && s.OnWritable != nil {
			s.OnWritable()
		}
	}
	return nil
}

// Run calls RunOnce until stop is closed. stop is expected to be backed
// by a registered Source (e.g. a self-pipe or eventfd) whose
// OnReadable closes it, since a blocking epoll_wait(-1) only returns on
// fd activity.
func (l *Loop) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := l.RunOnce(-1); err != nil {
			return err
		}
	}
}
