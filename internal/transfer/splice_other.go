//go:build !linux

package transfer

import (
	"errors"
	"fmt"

	"github.com/tanq16/segdl/internal/utils"
)

const spliceSupported = false

func splice(src rawReader, dst int, n int64, counter Counter) (int64, error) {
	return 0, fmt.Errorf("%w: %w", utils.ErrTransfer, errors.ErrUnsupported)
}
