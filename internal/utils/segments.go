package utils

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

type SegmentState int32

const (
	SegmentPending SegmentState = iota
	SegmentInFlight
	SegmentComplete
	SegmentFailed
)

func (s SegmentState) String() string {
	switch s {
	case SegmentPending:
		return "pending"
	case SegmentInFlight:
		return "in-flight"
	case SegmentComplete:
		return "complete"
	case SegmentFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Segment is one contiguous byte range of a download. Offset and Length never
// change; the counter and state are written only by the worker that holds
// the segment's job.
type Segment struct {
	Offset     int64
	Length     int64
	downloaded atomic.Int64
	state      atomic.Int32
	err        atomic.Pointer[error]
}

// Add advances the downloaded counter by n bytes, clamped to Length.
func (s *Segment) Add(n int64) {
	if n <= 0 {
		return
	}
	for {
		cur := s.downloaded.Load()
		next := min(cur+n, s.Length)
		if s.downloaded.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (s *Segment) Downloaded() int64 {
	return s.downloaded.Load()
}

func (s *Segment) State() SegmentState {
	return SegmentState(s.state.Load())
}

func (s *Segment) Start() {
	s.state.CompareAndSwap(int32(SegmentPending), int32(SegmentInFlight))
}

// Finish moves the segment to a terminal state. A nil error with the full
// length downloaded marks it complete, anything else marks it failed.
func (s *Segment) Finish(err error) {
	if err == nil && s.Downloaded() != s.Length {
		err = fmt.Errorf("%w: %d of %d bytes", ErrTransfer, s.Downloaded(), s.Length)
	}
	if err != nil {
		s.err.Store(&err)
		s.state.Store(int32(SegmentFailed))
		return
	}
	s.state.Store(int32(SegmentComplete))
}

func (s *Segment) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Partition splits [0, total) into contiguous ranges of at most chunk bytes.
func Partition(total, chunk int64) []*Segment {
	if chunk < 1 {
		panic("utils: segment size must be positive")
	}
	if total <= 0 {
		return nil
	}
	count := (total + chunk - 1) / chunk
	segments := make([]*Segment, 0, count)
	for i := range count {
		offset := i * chunk
		segments = append(segments, &Segment{
			Offset: offset,
			Length: min(chunk, total-offset),
		})
	}
	return segments
}

// Record describes one submitted download. Everything except the segment
// counters is read-only after construction.
type Record struct {
	ID       int
	Header   Header
	Segments []*Segment
	Started  time.Time
}

func NewRecord(id int, header Header, segmentSize int64) *Record {
	return &Record{
		ID:       id,
		Header:   header,
		Segments: Partition(header.Size, segmentSize),
		Started:  time.Now(),
	}
}

func (r *Record) Downloaded() int64 {
	var total int64
	for _, s := range r.Segments {
		total += s.Downloaded()
	}
	return total
}

// Complete reports whether every byte of the resource has landed.
func (r *Record) Complete() bool {
	return r.Downloaded() == r.Header.Size
}

func (r *Record) Failed() bool {
	for _, s := range r.Segments {
		if s.State() == SegmentFailed {
			return true
		}
	}
	return false
}

// Done reports whether no segment is pending or in flight.
func (r *Record) Done() bool {
	for _, s := range r.Segments {
		if st := s.State(); st != SegmentComplete && st != SegmentFailed {
			return false
		}
	}
	return true
}

func (r *Record) Err() error {
	var errs []error
	for i, s := range r.Segments {
		if err := s.Err(); err != nil {
			errs = append(errs, fmt.Errorf("segment %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
