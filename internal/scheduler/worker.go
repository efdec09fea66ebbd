package scheduler

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/tanq16/segdl/internal/utils"
)

// processJobs runs one worker until the queue is closed and empty.
func (m *Manager) processJobs(workerID int) {
	defer m.workers.Done()
	log := m.log.With().Int("workerID", workerID).Logger()
	for {
		job, ok := m.queue.Pop()
		if !ok {
			log.Debug().Msg("Queue closed, worker exiting")
			return
		}
		m.runJob(job, log)
	}
}

func (m *Manager) runJob(job Job, log zerolog.Logger) {
	rec := job.Record
	seg := job.Segment()
	log = log.With().Int("download", rec.ID).Int("segment", job.Index).Int64("offset", seg.Offset).Logger()

	provider, err := m.provider(rec.Header.Location.Scheme)
	if err != nil {
		seg.Finish(err)
		log.Error().Err(err).Msg("No provider for segment")
		return
	}
	file, err := os.OpenFile(rec.Header.Path, os.O_WRONLY, 0)
	if err != nil {
		seg.Finish(fmt.Errorf("%w: opening %s: %v", utils.ErrTransfer, rec.Header.Path, err))
		log.Error().Err(err).Msg("Failed to open destination")
		return
	}
	defer file.Close()
	if _, err := file.Seek(seg.Offset, io.SeekStart); err != nil {
		seg.Finish(fmt.Errorf("%w: seeking to %d: %v", utils.ErrTransfer, seg.Offset, err))
		log.Error().Err(err).Msg("Failed to seek destination")
		return
	}

	seg.Start()
	n, err := m.engine.FetchRange(context.Background(), provider, rec.Header.Location, seg, file)
	seg.Finish(err)
	if err != nil {
		log.Error().Err(err).Int64("written", n).Msg("Segment failed")
		return
	}
	log.Debug().Int64("written", n).Msg("Segment complete")
}
