package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/em0-omg/pdf-highlight-api/config"
	"github.com/em0-omg/pdf-highlight-api/database"
	"github.com/em0-omg/pdf-highlight-api/llm"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/models"
	"github.com/em0-omg/pdf-highlight-api/services"
)

// HighlightRequest carries a queued job. The PDF travels in memory; the
// job record in the database holds the parameters.
type HighlightRequest struct {
	JobID string
	PDF   []byte
}

// JobUpdate is sent to SSE subscribers as a job progresses.
type JobUpdate struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	PagesDone  int    `json:"pages_done"`
	PagesTotal int    `json:"pages_total"`
	Error      string `json:"error,omitempty"`
}

// HighlightWorker processes highlight jobs in the background.
type HighlightWorker struct {
	jobs        chan HighlightRequest
	analyzer    llm.Analyzer
	analyzerErr error
	timeout     time.Duration
	subscribers map[chan JobUpdate]bool
	subMux      sync.RWMutex
}

var (
	worker     *HighlightWorker
	workerOnce sync.Once
)

// GetWorker returns the singleton HighlightWorker instance.
func GetWorker() *HighlightWorker {
	workerOnce.Do(func() {
		analyzer, err := llm.NewAnalyzer()
		if err != nil {
			logger.Warn("LLM provider unavailable, queued jobs will fail", "error", err)
		}
		worker = &HighlightWorker{
			jobs:        make(chan HighlightRequest, config.GetEnvInt("JOB_QUEUE_SIZE", 100)),
			analyzer:    analyzer,
			analyzerErr: err,
			timeout:     time.Duration(config.GetEnvInt("JOB_TIMEOUT_SECONDS", 600)) * time.Second,
			subscribers: make(map[chan JobUpdate]bool),
		}
		go worker.run()
		logger.Info("Highlight worker started")
	})
	return worker
}

// Provider names the configured LLM provider, or empty when none is
// available.
func (w *HighlightWorker) Provider() string {
	if w.analyzer == nil {
		return ""
	}
	return w.analyzer.Name()
}

// Enqueue adds a highlight job to the queue. Returns false when the
// queue is full; the caller should fail the job rather than block.
func (w *HighlightWorker) Enqueue(req HighlightRequest) bool {
	select {
	case w.jobs <- req:
		logger.Info("Highlight job enqueued", "job_id", req.JobID)
		return true
	default:
		logger.Warn("Highlight job queue full, dropping job", "job_id", req.JobID)
		return false
	}
}

// Subscribe registers a channel to receive job updates.
func (w *HighlightWorker) Subscribe(ch chan JobUpdate) {
	w.subMux.Lock()
	defer w.subMux.Unlock()
	w.subscribers[ch] = true
}

// Unsubscribe removes a channel from job updates.
func (w *HighlightWorker) Unsubscribe(ch chan JobUpdate) {
	w.subMux.Lock()
	defer w.subMux.Unlock()
	delete(w.subscribers, ch)
	close(ch)
}

func (w *HighlightWorker) run() {
	for req := range w.jobs {
		w.processJob(req)
	}
}

func (w *HighlightWorker) processJob(req HighlightRequest) {
	logger.Info("Processing highlight job", "job_id", req.JobID)

	var job models.HighlightJob
	if err := database.DB.First(&job, "id = ?", req.JobID).Error; err != nil {
		logger.Error("Failed to fetch highlight job", "job_id", req.JobID, "error", err)
		return
	}

	if w.analyzer == nil {
		w.failJob(&job, w.analyzerErr.Error())
		return
	}

	job.Status = models.JobStatusRunning
	if err := database.DB.Save(&job).Error; err != nil {
		logger.Error("Failed to mark job running", "job_id", job.ID, "error", err)
		return
	}
	w.broadcast(jobUpdate(&job))

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	svc := services.NewHighlightService(w.analyzer)
	result, _, err := svc.Run(ctx, req.PDF, job.Query, job.Shape, job.DPI, func(done, total int) {
		job.PagesDone = done
		job.PagesTotal = total
		if err := database.DB.Save(&job).Error; err != nil {
			logger.Warn("Failed to persist job progress", "job_id", job.ID, "error", err)
		}
		w.broadcast(jobUpdate(&job))
	})
	if err != nil {
		w.failJob(&job, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		w.failJob(&job, "encode result: "+err.Error())
		return
	}

	job.Status = models.JobStatusDone
	job.ResultJSON = string(payload)
	if err := database.DB.Save(&job).Error; err != nil {
		logger.Error("Failed to save job result", "job_id", job.ID, "error", err)
		return
	}

	logger.Info("Highlight job completed", "job_id", job.ID, "detections", result.TotalDetections)
	w.broadcast(jobUpdate(&job))
}

func (w *HighlightWorker) failJob(job *models.HighlightJob, msg string) {
	job.Status = models.JobStatusFailed
	job.Error = msg
	if err := database.DB.Save(job).Error; err != nil {
		logger.Error("Failed to mark job failed", "job_id", job.ID, "error", err)
	}
	logger.Error("Highlight job failed", "job_id", job.ID, "error", msg)
	w.broadcast(jobUpdate(job))
}

func (w *HighlightWorker) broadcast(update JobUpdate) {
	w.subMux.RLock()
	for ch := range w.subscribers {
		select {
		case ch <- update:
		default:
			// Drop update if subscriber is slow
		}
	}
	w.subMux.RUnlock()
}

func jobUpdate(job *models.HighlightJob) JobUpdate {
	return JobUpdate{
		JobID:      job.ID,
		Status:     job.Status,
		PagesDone:  job.PagesDone,
		PagesTotal: job.PagesTotal,
		Error:      job.Error,
	}
}
