package segdlhttp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tanq16/segdl/internal/utils"
)

const defaultPort = "80"

func netloc(loc utils.Location) string {
	port := loc.Port
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(loc.Host, port)
}

func (d *HTTPDownloader) dial(ctx context.Context, loc utils.Location) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout: d.opts.ConnectTimeout,
	}
	if d.opts.SocketBuffer > 0 {
		size := d.opts.SocketBuffer
		dialer.Control = func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				setSocketOptions(fd, size)
			})
		}
	}
	conn, err := dialer.DialContext(ctx, "tcp", netloc(loc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrConnection, err)
	}
	return conn, nil
}

// request dials, writes the request head and returns a reader positioned at
// the start of the response. extra header lines must not carry the CRLF.
func (d *HTTPDownloader) request(ctx context.Context, method string, loc utils.Location, extra []string) (net.Conn, *bufio.Reader, error) {
	conn, err := d.dial(ctx, loc)
	if err != nil {
		return nil, nil, err
	}
	// the response head must arrive within the connect timeout
	deadline := time.Now().Add(d.opts.ConnectTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetDeadline(deadline)
	if _, err := io.WriteString(conn, buildRequest(method, loc, extra)); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: writing request: %v", utils.ErrConnection, err)
	}
	return conn, bufio.NewReader(conn), nil
}

func buildRequest(method string, loc utils.Location, extra []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.0\r\n", method, loc.Target)
	fmt.Fprintf(&b, "Host: %s\r\n", loc.Host)
	for _, line := range extra {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}

func rangeHeader(offset, length int64) string {
	return fmt.Sprintf("Range: bytes=%d-%d", offset, offset+length-1)
}

// readHeaders feeds each response line (status line included) to fn until a
// line of at most two bytes ends the head or fn returns false.
func readHeaders(reader *bufio.Reader, fn func(line string) bool) error {
	for {
		line, err := reader.ReadString('\n')
		if len(line) <= 2 {
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: reading headers: %v", utils.ErrConnection, err)
			}
			return nil
		}
		if !fn(strings.TrimRight(line, "\r\n")) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: reading headers: %v", utils.ErrConnection, err)
		}
	}
}

func parseStatus(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}

func clearDeadline(conn net.Conn) {
	conn.SetDeadline(time.Time{})
}
