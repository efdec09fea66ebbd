package utils

import (
	"context"
	"io"
)

// SchemeProvider probes and fetches resources for one URL scheme.
type SchemeProvider interface {
	// ProbeSize returns the total size of the resource without transferring its body.
	ProbeSize(ctx context.Context, loc Location) (int64, error)
	// OpenRange requests length bytes starting at offset and returns the
	// response body positioned just after the protocol headers.
	OpenRange(ctx context.Context, loc Location, offset, length int64) (*Stream, error)
}

// Stream is an open ranged response.
type Stream struct {
	// Prefix holds body bytes that were read while skipping the headers.
	Prefix []byte
	// Body is the rest of the response, usually the raw connection.
	Body io.ReadCloser
	// Status is the response status code, 0 if it could not be parsed.
	Status int
}

func (s *Stream) Close() error {
	if s == nil || s.Body == nil {
		return nil
	}
	return s.Body.Close()
}

type Header struct {
	Location Location
	Path     string
	Size     int64
}

type DownloadEntry struct {
	OutputPath string `yaml:"op"`
	URL        string `yaml:"link"`
}
