package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/em0-omg/pdf-highlight-api/annotate"
	"github.com/em0-omg/pdf-highlight-api/database"
	"github.com/em0-omg/pdf-highlight-api/jobs"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/models"
	"github.com/em0-omg/pdf-highlight-api/services"
)

type JobSubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobStatusResponse struct {
	JobID      string                    `json:"job_id"`
	DocumentID uint                      `json:"document_id"`
	Status     string                    `json:"status"`
	PagesDone  int                       `json:"pages_done"`
	PagesTotal int                       `json:"pages_total"`
	Error      string                    `json:"error,omitempty"`
	Result     *services.HighlightResult `json:"result,omitempty"`
}

// SubmitHighlightJob queues a highlight run and returns immediately.
// Poll the job endpoint or subscribe to the SSE stream for progress.
func SubmitHighlightJob(w http.ResponseWriter, r *http.Request) {
	logger.Info("Received async highlight request")

	data, fileName, status, err := readPDFUpload(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	query, shape, dpi, errMsg := highlightParams(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	pageCount, err := annotate.PageCount(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable pdf: "+err.Error())
		return
	}

	doc, err := upsertDocument(fileName, data, pageCount)
	if err != nil {
		logger.Error("Failed to record document", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	worker := jobs.GetWorker()

	job := models.HighlightJob{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Query:      query,
		Shape:      shape,
		DPI:        dpi,
		Provider:   worker.Provider(),
		Status:     models.JobStatusPending,
		PagesTotal: pageCount,
	}
	if err := database.DB.Create(&job).Error; err != nil {
		logger.Error("Failed to create job", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if !worker.Enqueue(jobs.HighlightRequest{JobID: job.ID, PDF: data}) {
		job.Status = models.JobStatusFailed
		job.Error = "job queue is full"
		if err := database.DB.Save(&job).Error; err != nil {
			logger.Error("Failed to mark job failed", "job_id", job.ID, "error", err)
		}
		writeError(w, http.StatusServiceUnavailable, "job queue is full, retry later")
		return
	}

	writeJSON(w, http.StatusAccepted, JobSubmitResponse{JobID: job.ID, Status: job.Status})
}

// GetJob reports the state of an async highlight job, including the
// full result once it finishes.
func GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	var job models.HighlightJob
	if err := database.DB.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		logger.Error("Failed to fetch job", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch job")
		return
	}

	resp := JobStatusResponse{
		JobID:      job.ID,
		DocumentID: job.DocumentID,
		Status:     job.Status,
		PagesDone:  job.PagesDone,
		PagesTotal: job.PagesTotal,
		Error:      job.Error,
	}

	if job.Status == models.JobStatusDone && job.ResultJSON != "" {
		var result services.HighlightResult
		if err := json.Unmarshal([]byte(job.ResultJSON), &result); err != nil {
			logger.Error("Failed to decode stored job result", "job_id", job.ID, "error", err)
		} else {
			resp.Result = &result
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
