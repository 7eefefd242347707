package wire

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// maxFDs bounds how many fds we accept per SCM_RIGHTS control message; it
// matches libwayland-server's own MAX_FDS_OUT limit.
const maxFDs = 28

// Conn is one Wayland wire connection: a guest client's socket, or (when
// used from internal/hostproto) the host compositor's own socket. It owns
// framing and fd passing; object identity and dispatch live in Table.
type Conn struct {
	uc *net.UnixConn

	writeMu sync.Mutex
}

// NewConn wraps an already-accepted or already-connected unix socket.
func NewConn(uc *net.UnixConn) (*Conn, error) {
	return &Conn{uc: uc}, nil
}

// FD returns the underlying socket file descriptor, for registration with
// internal/scheduler's epoll set.
func (c *Conn) FD() (int, error) {
	raw, err := c.uc.SyscallConn()
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

// ReadMessage reads exactly one wire message, including any fds passed
// alongside it via SCM_RIGHTS.
func (c *Conn) ReadMessage() (Header, *ArgReader, error) {
	hdrBuf := make([]byte, HeaderLen)
	if err := c.readFull(hdrBuf); err != nil {
		return Header{}, nil, err
	}
	hdr := decodeHeader(hdrBuf)
	bodyLen := int(hdr.Size) - HeaderLen
	if bodyLen < 0 {
		return Header{}, nil, fmt.Errorf("wire: corrupt message size %d", hdr.Size)
	}
	body, fds, err := c.readBodyWithFDs(bodyLen)
	if err != nil {
		return Header{}, nil, err
	}
	return hdr, NewArgReader(body, fds), nil
}

func (c *Conn) readFull(buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := c.uc.Read(buf[n:])
		if err != nil {
			return err
		}
		n += m
	}
	return nil
}

// readBodyWithFDs reads bodyLen bytes of message body, capturing any fds
// that rode along via SCM_RIGHTS ancillary data on the same read.
func (c *Conn) readBodyWithFDs(bodyLen int) ([]byte, []int, error) {
	if bodyLen == 0 {
		return nil, nil, nil
	}
	raw, err := c.uc.SyscallConn()
	if err != nil {
		return nil, nil, err
	}
	body := make([]byte, bodyLen)
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))
	var n, oobn int
	var rerr error
	cerr := raw.Read(func(fd uintptr) bool {
		n, oobn, _, _, rerr = unix.Recvmsg(int(fd), body, oob, 0)
		return true
	})
	if cerr != nil {
		return nil, nil, cerr
	}
	if rerr != nil {
		return nil, nil, rerr
	}
	if n < bodyLen {
		// Short read: fall back to completing via plain reads for the
		// remainder (fds, if any, are only ever attached to the first
		// datagram-equivalent read of a SOCK_STREAM message).
		rest := make([]byte, bodyLen-n)
		if err := c.readFull(rest); err != nil {
			return nil, nil, err
		}
		body = append(body[:n], rest...)
	}
	var fds []int
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err == nil {
			for _, cm := range cmsgs {
				got, err := unix.ParseUnixRights(&cm)
				if err == nil {
					fds = append(fds, got...)
				}
			}
		}
	}
	return body, fds, nil
}

// WriteMessage sends one event/request with its header and body, passing
// fds (if any) via SCM_RIGHTS on the same underlying write.
func (c *Conn) WriteMessage(sender uint32, opcode uint16, args *ArgWriter) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	body := args.Bytes()
	size := HeaderLen + len(body)
	hdr := encodeHeader(Header{Sender: sender, Opcode: opcode, Size: uint16(size)})
	msg := append(hdr, body...)

	fds := args.FDs()
	if len(fds) == 0 {
		_, err := c.uc.Write(msg)
		return err
	}

	raw, err := c.uc.SyscallConn()
	if err != nil {
		return err
	}
	oob := unix.UnixRights(fds...)
	var werr error
	cerr := raw.Write(func(fd uintptr) bool {
		_, _, werr = unix.SendmsgN(int(fd), msg, oob, nil, 0)
		return true
	})
	if cerr != nil {
		return cerr
	}
	return werr
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.uc.Close()
}
