package scheduler

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLoopDispatchesReadableSource(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := false
	require.NoError(t, loop.Add(&Source{
		FD:   int(r.Fd()),
		Name: "test-pipe",
		OnReadable: func() {
			fired = true
			buf := make([]byte, 8)
			r.Read(buf)
		},
	}))

	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)

	require.NoError(t, loop.RunOnce(1000))
	require.True(t, fired)
}

func TestLoopRunOnceTimesOutWithNoActivity(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := false
	require.NoError(t, loop.Add(&Source{FD: int(r.Fd()), OnReadable: func() { fired = true }}))
	require.NoError(t, loop.RunOnce(50))
	require.False(t, fired)
}

func TestLoopRemoveStopsDispatch(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := false
	require.NoError(t, loop.Add(&Source{FD: int(r.Fd()), OnReadable: func() { fired = true }}))
	require.NoError(t, loop.Remove(int(r.Fd())))

	w.Write([]byte("x"))
	require.NoError(t, loop.RunOnce(50))
	require.False(t, fired)
}

func TestSignalSourceDeliversSigusr1(t *testing.T) {
	sig, err := NewSignalSource(unix.SIGUSR1)
	require.NoError(t, err)
	defer sig.Close()

	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	var received unix.SignalfdSiginfo
	require.NoError(t, loop.Add(&Source{
		FD: sig.FD,
		OnReadable: func() {
			info, err := sig.Read()
			require.NoError(t, err)
			received = info
		},
	}))

	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGUSR1))
	require.NoError(t, loop.RunOnce(1000))
	require.Equal(t, uint32(unix.SIGUSR1), received.Signo)
}

func TestStatsTimerFires(t *testing.T) {
	timer, err := NewStatsTimer(20 * time.Millisecond)
	require.NoError(t, err)
	defer timer.Close()

	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	fired := false
	require.NoError(t, loop.Add(&Source{
		FD: timer.FD,
		OnReadable: func() {
			count, err := timer.Ack()
			require.NoError(t, err)
			require.Greater(t, count, uint64(0))
			fired = true
		},
	}))

	require.NoError(t, loop.RunOnce(1000))
	require.True(t, fired)
}
