//go:build linux

package transfer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/tanq16/segdl/internal/utils"
)

const spliceSupported = true

const (
	defaultPipeCapacity = 64 * 1024
	maxDrainStalls      = 1024
)

// splice moves up to n bytes from src to the dst descriptor through a
// non-blocking pipe. It stops early only when src reaches EOF; the caller
// decides whether a short count is an error.
func splice(src rawReader, dst int, n int64, counter Counter) (int64, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrTransfer, os.NewSyscallError("pipe2", err))
	}
	rpipe, wpipe := fds[0], fds[1]
	defer unix.Close(rpipe)
	defer unix.Close(wpipe)
	capacity := pipeCapacity(wpipe)

	var moved int64
	for moved < n {
		want := int(min(n-moved, int64(capacity)))
		var filled int64
		var spliceErr error
		err := src.Read(func(fd uintptr) bool {
			filled, spliceErr = unix.Splice(int(fd), nil, wpipe, nil, want, unix.SPLICE_F_MOVE|unix.SPLICE_F_NONBLOCK)
			// EAGAIN means the socket has nothing yet; the runtime waits for readability and calls again
			return spliceErr != unix.EAGAIN
		})
		if err != nil {
			return moved, fmt.Errorf("%w: %v", utils.ErrTransfer, err)
		}
		if spliceErr == unix.EINTR {
			continue
		}
		if spliceErr != nil {
			return moved, fmt.Errorf("%w: %v", utils.ErrTransfer, os.NewSyscallError("splice", spliceErr))
		}
		if filled == 0 {
			break
		}

		stalls := 0
		for filled > 0 {
			written, err := unix.Splice(rpipe, nil, dst, nil, int(filled), unix.SPLICE_F_MOVE|unix.SPLICE_F_NONBLOCK)
			if err == unix.EAGAIN || err == unix.EINTR || (err == nil && written == 0) {
				// nothing moved this round, the pipe still holds data
				stalls++
				if stalls > maxDrainStalls {
					return moved, fmt.Errorf("%w: pipe drain stalled with %d bytes pending", utils.ErrSpliceInvariant, filled)
				}
				continue
			}
			if err != nil {
				return moved, fmt.Errorf("%w: %v", utils.ErrTransfer, os.NewSyscallError("splice", err))
			}
			stalls = 0
			filled -= written
			moved += written
			counter.Add(written)
		}
	}
	return moved, nil
}

func pipeCapacity(fd int) int {
	size, err := unix.FcntlInt(uintptr(fd), unix.F_GETPIPE_SZ, 0)
	if err != nil || size <= 0 {
		return defaultPipeCapacity
	}
	return size
}
