package transfer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/tanq16/segdl/internal/utils"
)

type Strategy string

const (
	StrategyBuffered Strategy = "buffered"
	StrategySplice   Strategy = "splice"
)

func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyBuffered, StrategySplice:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("unknown transfer strategy %q (want %q or %q)", name, StrategyBuffered, StrategySplice)
	}
}

// Counter receives the number of bytes that reached the destination.
type Counter interface {
	Add(n int64)
}

// Engine copies ranged responses into destination files.
type Engine struct {
	strategy   Strategy
	bufferSize int
	buffers    sync.Pool
	log        zerolog.Logger
}

func New(strategy Strategy, bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = utils.DefaultBufferSize
	}
	log := utils.GetLogger("transfer")
	if strategy == StrategySplice && !spliceSupported {
		log.Warn().Msg("Zero-copy transfer is not available on this platform, using buffered copy")
		strategy = StrategyBuffered
	}
	e := &Engine{strategy: strategy, bufferSize: bufferSize, log: log}
	e.buffers.New = func() any {
		buf := make([]byte, e.bufferSize)
		return &buf
	}
	return e
}

func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// FetchRange requests seg's byte range from provider and streams it into dst,
// which must already be positioned at seg.Offset.
func (e *Engine) FetchRange(ctx context.Context, provider utils.SchemeProvider, loc utils.Location, seg *utils.Segment, dst *os.File) (int64, error) {
	stream, err := provider.OpenRange(ctx, loc, seg.Offset, seg.Length)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	return e.Copy(stream, dst, seg.Length, seg)
}

// Copy writes exactly length bytes of stream to dst.
func (e *Engine) Copy(stream *utils.Stream, dst *os.File, length int64, counter Counter) (int64, error) {
	if e.strategy == StrategySplice {
		if conn, ok := stream.Body.(syscall.Conn); ok {
			return e.zeroCopy(stream.Prefix, conn, dst, length, counter)
		}
		e.log.Debug().Msg("Stream has no descriptor, falling back to buffered copy")
	}
	bufPtr := e.buffers.Get().(*[]byte)
	defer e.buffers.Put(bufPtr)
	return bufferedCopy(*bufPtr, stream, dst, length, counter)
}
