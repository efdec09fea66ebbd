package segdlhttp

import (
	"context"

	"github.com/tanq16/segdl/internal/utils"
)

// OpenRange sends a ranged GET and skips the response head. The status code
// is recorded but not checked; callers get whatever body the server sends.
func (d *HTTPDownloader) OpenRange(ctx context.Context, loc utils.Location, offset, length int64) (*utils.Stream, error) {
	log := utils.GetLogger("http-fetch").With().Str("host", loc.Host).Int64("offset", offset).Int64("length", length).Logger()
	conn, reader, err := d.request(ctx, "GET", loc, []string{rangeHeader(offset, length)})
	if err != nil {
		return nil, err
	}

	status := 0
	first := true
	err = readHeaders(reader, func(line string) bool {
		if first {
			status = parseStatus(line)
			first = false
		}
		return true
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	clearDeadline(conn)
	if status != 206 && status != 200 {
		log.Warn().Int("status", status).Msg("Unexpected status for range request")
	} else {
		log.Debug().Int("status", status).Msg("Range response headers read")
	}

	// whatever the header reader pulled past the blank line belongs to the body
	buffered, _ := reader.Peek(reader.Buffered())
	prefix := make([]byte, len(buffered))
	copy(prefix, buffered)
	return &utils.Stream{
		Prefix: prefix,
		Body:   conn,
		Status: status,
	}, nil
}
