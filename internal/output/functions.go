package output

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/tanq16/segdl/internal/utils"
	"golang.org/x/term"
)

// BarWidth is the number of cells in a download's segment bar.
const BarWidth = 80

func FormatBytes(bytes int64) string {
	return humanize.IBytes(uint64(max(bytes, 0)))
}

// FormatSpeed formats an average rate over elapsed seconds.
func FormatSpeed(bytes int64, elapsed float64) string {
	if elapsed <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(float64(max(bytes, 0))/elapsed)) + "/s"
}

// SegmentBar draws width cells for rec. Cell p belongs to the byte range
// ending at size*(p+1)/width; it is filled when that position has been
// downloaded within its segment, so gaps show which segments lag.
func SegmentBar(rec *utils.Record, width int) string {
	if width <= 0 {
		width = BarWidth
	}
	size := rec.Header.Size
	if size <= 0 {
		return strings.Repeat(StyleSymbols["fill"], width)
	}
	var bar strings.Builder
	bar.Grow(width * 3)
	cell := int64(0)
	emit := func(upTo int64, symbol string) {
		for cell < int64(width) && size*(cell+1) <= int64(width)*upTo {
			bar.WriteString(symbol)
			cell++
		}
	}
	for _, seg := range rec.Segments {
		emit(seg.Offset+seg.Downloaded(), StyleSymbols["fill"])
		emit(seg.Offset+seg.Length, StyleSymbols["empty"])
	}
	return bar.String()
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func getTerminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24
	}
	return height
}

func wrapText(text string, indent int) []string {
	maxWidth := getTerminalWidth() - indent - 2
	if maxWidth <= 10 {
		maxWidth = 80
	}
	if utf8.RuneCountInString(text) <= maxWidth {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	width := 0
	for _, r := range text {
		if width+1 > maxWidth {
			lines = append(lines, current.String())
			current.Reset()
			width = 0
		}
		current.WriteRune(r)
		width++
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
