package utils

import (
	"errors"
	"time"
)

const DefaultBufferSize = 1 << 20  // 1MB buffer
const DefaultSegmentSize = 1 << 20 // 1MB segments
const DefaultThreads = 64
const DefaultSocketBuffer = 1 << 20
const DefaultConnectTimeout = 30 * time.Second
const DefaultProgressInterval = time.Second
const LogFile = ".segdl.log"

var (
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrProbeFailed       = errors.New("size probe failed")
	ErrSizeUnknown       = errors.New("server did not report a content length")
	ErrFileCreate        = errors.New("could not create destination file")
	ErrConnection        = errors.New("connection failed")
	ErrTransfer          = errors.New("transfer failed")
	ErrSpliceInvariant   = errors.New("splice moved an unexpected number of bytes")
)
