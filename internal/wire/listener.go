package wire

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Listener accepts guest client connections on the Wayland server socket,
// following the XDG_RUNTIME_DIR/<socket-name> convention every Wayland
// compositor uses.
type Listener struct {
	ln   *net.UnixListener
	path string
}

// Listen creates the server socket at $XDG_RUNTIME_DIR/<name>, refusing to
// overwrite a socket already in use.
func Listen(runtimeDir, name string) (*Listener, error) {
	if runtimeDir == "" {
		return nil, fmt.Errorf("wire: XDG_RUNTIME_DIR is not set")
	}
	path := filepath.Join(runtimeDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("wire: socket %s already exists", path)
	}
	addr := &net.UnixAddr{Name: path, Net: "unix"}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("wire: listen on %s: %w", path, err)
	}
	return &Listener{ln: ln, path: path}, nil
}

func (l *Listener) Path() string { return l.path }

func (l *Listener) FD() (int, error) {
	raw, err := l.ln.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	cerr := raw.Control(func(f uintptr) { fd = int(f) })
	if cerr != nil {
		return -1, cerr
	}
	return fd, nil
}

// Accept accepts one pending guest connection and wraps it in a Conn.
func (l *Listener) Accept() (*Conn, error) {
	uc, err := l.ln.AcceptUnix()
	if err != nil {
		return nil, err
	}
	return NewConn(uc)
}

func (l *Listener) Close() error {
	err := l.ln.Close()
	os.Remove(l.path)
	return err
}
