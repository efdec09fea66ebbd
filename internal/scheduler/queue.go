package scheduler

import (
	"sync"

	"github.com/tanq16/segdl/internal/utils"
)

// Job is one segment of one download.
type Job struct {
	Record *utils.Record
	Index  int
}

func (j Job) Segment() *utils.Segment {
	return j.Record.Segments[j.Index]
}

// jobQueue is an unbounded FIFO shared by every worker. Once closed it
// accepts nothing new but still hands out what it holds.
type jobQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	jobs     []Job
	closed   bool
	enqueued int
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends jobs and reports false if the queue is already closed.
func (q *jobQueue) Push(jobs ...Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, jobs...)
	q.enqueued += len(jobs)
	if len(jobs) == 1 {
		q.cond.Signal()
	} else if len(jobs) > 1 {
		q.cond.Broadcast()
	}
	return true
}

// Pop blocks until a job is available. It returns false once the queue is
// closed and drained.
func (q *jobQueue) Pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	job := q.jobs[0]
	q.jobs[0] = Job{}
	q.jobs = q.jobs[1:]
	return job, true
}

func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *jobQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *jobQueue) Enqueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueued
}
