package service

import (
	"bitwise74/docs-api/config"
	"bitwise74/docs-api/pkg/util"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var errQueueFull = errors.New("job queue full")

type FFmpegJob struct {
	ID   string
	Args []string
	Ctx  context.Context
	Done chan error
}

// JobQueue runs ffmpeg jobs on a fixed amount of workers
type JobQueue struct {
	ffmpeg  string
	jobs    chan *FFmpegJob
	running atomic.Int32
	workers int
	threads int
	start   sync.Once
}

// NewJobQueue initializes a new job queue that limits the
// max amount of jobs that can be queued at once
func NewJobQueue(c *config.Render) *JobQueue {
	zap.L().Debug("Initializing job queue", zap.Int("max_jobs", c.MaxJobs))

	return &JobQueue{
		ffmpeg:  c.FFmpegPath,
		jobs:    make(chan *FFmpegJob, c.MaxJobs),
		workers: c.Workers,
		threads: getThreadsPerJob(c.Workers),
	}
}

// Figures out the amount of threads to use per ffmpeg job
func getThreadsPerJob(c int) int {
	threads := int(math.Floor(float64(runtime.NumCPU()) / float64(max(c, 1))))
	return max(threads, 1)
}

func (q *JobQueue) StartWorkerPool() {
	q.start.Do(func() {
		for range q.workers {
			go q.worker()
		}
	})
}

func (q *JobQueue) worker() {
	for job := range q.jobs {
		err := q.run(job)

		job.Done <- err
		close(job.Done)

		q.running.Add(-1)

		if err != nil {
			zap.L().Error("FFmpeg job finished with an error",
				zap.String("job_id", job.ID),
				zap.Error(err))
		}
	}
}

// Enqueue hands a job to the workers without blocking
func (q *JobQueue) Enqueue(job *FFmpegJob) error {
	select {
	case q.jobs <- job:
		q.running.Add(1)
		zap.L().Debug("New ffmpeg job enqueued", zap.Int32("enqueued", q.running.Load()), zap.String("job_id", job.ID))
		return nil
	default:
		return errQueueFull
	}
}

func (q *JobQueue) run(job *FFmpegJob) error {
	if err := job.Ctx.Err(); err != nil {
		return err
	}

	args := append([]string{"-threads", strconv.Itoa(q.threads)}, job.Args...)
	cmd := exec.CommandContext(job.Ctx, q.ffmpeg, args...)

	zap.L().Debug("Running FFmpeg command", zap.String("cmd", cmd.String()))

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w, %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return nil
}

func newJobID() string {
	return util.RandStr(5)
}
