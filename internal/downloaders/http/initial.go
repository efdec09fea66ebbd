package segdlhttp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tanq16/segdl/internal/utils"
)

type Options struct {
	ConnectTimeout time.Duration
	// SocketBuffer sets SO_RCVBUF/SO_SNDBUF on every connection; 0 keeps the OS default.
	SocketBuffer int
}

// HTTPDownloader speaks a minimal HTTP/1.0 dialect over one TCP connection per request.
type HTTPDownloader struct {
	opts Options
}

func New(opts Options) *HTTPDownloader {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = utils.DefaultConnectTimeout
	}
	if opts.SocketBuffer < 0 {
		opts.SocketBuffer = 0
	}
	return &HTTPDownloader{opts: opts}
}

func Default() *HTTPDownloader {
	return New(Options{SocketBuffer: utils.DefaultSocketBuffer})
}

// ProbeSize sends a HEAD request and returns the first Content-Length header.
// The connection is dropped as soon as the header is found.
func (d *HTTPDownloader) ProbeSize(ctx context.Context, loc utils.Location) (int64, error) {
	log := utils.GetLogger("http-probe").With().Str("host", loc.Host).Str("target", loc.Target).Logger()
	conn, reader, err := d.request(ctx, "HEAD", loc, nil)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var size int64 = -1
	var parseErr error
	err = readHeaders(reader, func(line string) bool {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "content-length") {
			return true
		}
		value = strings.TrimSpace(value)
		size, parseErr = strconv.ParseInt(value, 10, 64)
		if parseErr != nil || size < 0 {
			parseErr = fmt.Errorf("%w: invalid content length %q", utils.ErrProbeFailed, value)
		}
		return false
	})
	if err != nil {
		return 0, err
	}
	if parseErr != nil {
		return 0, parseErr
	}
	if size < 0 {
		log.Debug().Msg("No Content-Length in probe response")
		return 0, utils.ErrSizeUnknown
	}
	log.Debug().Int64("size", size).Msg("Probe complete")
	return size, nil
}
