package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tanq16/segdl/internal/utils"
)

func bufferedCopy(buffer []byte, stream *utils.Stream, dst io.Writer, length int64, counter Counter) (int64, error) {
	var src io.Reader = bytes.NewReader(stream.Prefix)
	if stream.Body != nil {
		src = io.MultiReader(src, stream.Body)
	}
	src = io.LimitReader(src, length)

	var written int64
	for {
		bytesRead, readErr := src.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := dst.Write(buffer[:bytesRead]); writeErr != nil {
				return written, fmt.Errorf("%w: writing to file: %v", utils.ErrTransfer, writeErr)
			}
			written += int64(bytesRead)
			counter.Add(int64(bytesRead))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return written, fmt.Errorf("%w: reading response: %v", utils.ErrTransfer, readErr)
		}
	}
	if written != length {
		return written, fmt.Errorf("%w: expected %d bytes, got %d", utils.ErrTransfer, length, written)
	}
	return written, nil
}
