package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tanq16/segdl/internal/utils"
)

func record(size, segment int64) *utils.Record {
	return utils.NewRecord(0, utils.Header{Size: size}, segment)
}

func TestSegmentBar(t *testing.T) {
	tests := []struct {
		name  string
		size  int64
		chunk int64
		fill  []int64
		want  string
	}{
		{"nothing downloaded", 80, 20, []int64{0, 0, 0, 0}, strings.Repeat(" ", 80)},
		{"all downloaded", 80, 20, []int64{20, 20, 20, 20}, strings.Repeat("#", 80)},
		{
			"gap in second segment",
			160, 40, []int64{40, 0, 40, 20},
			strings.Repeat("#", 20) + strings.Repeat(" ", 20) + strings.Repeat("#", 20) + strings.Repeat("#", 10) + strings.Repeat(" ", 10),
		},
		{"half of one segment", 800, 800, []int64{400}, strings.Repeat("#", 40) + strings.Repeat(" ", 40)},
		{"odd size", 3, 1, []int64{1, 0, 1}, strings.Repeat("#", 26) + strings.Repeat(" ", 27) + strings.Repeat("#", 27)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(tt.size, tt.chunk)
			for i, n := range tt.fill {
				rec.Segments[i].Add(n)
			}
			got := SegmentBar(rec, BarWidth)
			if got != tt.want {
				t.Errorf("SegmentBar() =\n%q\nwant\n%q", got, tt.want)
			}
			if len(got) != BarWidth {
				t.Errorf("bar has %d cells, want %d", len(got), BarWidth)
			}
		})
	}
}

func TestSegmentBarEmptyResource(t *testing.T) {
	if got := SegmentBar(record(0, 10), 10); got != strings.Repeat("#", 10) {
		t.Errorf("SegmentBar(empty) = %q", got)
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(1024, 0); got != "0 B/s" {
		t.Errorf("FormatSpeed(1024, 0) = %q", got)
	}
	if got := FormatSpeed(2048, 2); got != "1.0 KiB/s" {
		t.Errorf("FormatSpeed(2048, 2) = %q", got)
	}
}

func TestSummaryCountsFailures(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(&out, time.Second)

	ok := record(10, 10)
	ok.Segments[0].Start()
	ok.Segments[0].Add(10)
	ok.Segments[0].Finish(nil)
	m.Track("ok.bin", ok)

	bad := record(10, 10)
	bad.Segments[0].Start()
	bad.Segments[0].Add(3)
	bad.Segments[0].Finish(utils.ErrTransfer)
	m.Track("bad.bin", bad)

	m.ReportError("ftp://x/y", errors.New("unsupported scheme"))

	if got := m.Failures(); got != 2 {
		t.Errorf("Failures() = %d, want 2", got)
	}
	m.StopDisplay()
	text := out.String()
	for _, want := range []string{"Completed 1 of 3", "Failed 2 of 3", "bad.bin", "ftp://x/y"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}
