package transfer

import (
	"fmt"
	"os"
	"syscall"

	"github.com/tanq16/segdl/internal/utils"
)

// rawReader is the subset of syscall.RawConn used by splice.
type rawReader interface {
	Read(f func(fd uintptr) (done bool)) error
}

// zeroCopy writes the bytes the protocol reader already buffered, then moves
// the rest of the range from body to dst inside the kernel.
func (e *Engine) zeroCopy(prefix []byte, body syscall.Conn, dst *os.File, length int64, counter Counter) (int64, error) {
	if int64(len(prefix)) > length {
		prefix = prefix[:length]
	}
	var written int64
	if len(prefix) > 0 {
		n, err := dst.Write(prefix)
		written += int64(n)
		counter.Add(int64(n))
		if err != nil {
			return written, fmt.Errorf("%w: writing buffered bytes: %v", utils.ErrTransfer, err)
		}
	}
	remaining := length - written
	if remaining == 0 {
		return written, nil
	}

	rc, err := body.SyscallConn()
	if err != nil {
		return written, fmt.Errorf("%w: %v", utils.ErrTransfer, err)
	}
	moved, err := splice(rc, int(dst.Fd()), remaining, counter)
	written += moved
	if err != nil {
		return written, err
	}
	if moved != remaining {
		return written, fmt.Errorf("%w: moved %d of %d bytes", utils.ErrSpliceInvariant, moved, remaining)
	}
	return written, nil
}
