package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/scheduler"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/dto"
)

// JobRunner is the part of the scheduler exposed over HTTP
type JobRunner interface {
	Status() []scheduler.JobState
	Trigger(ctx context.Context, name string) error
}

// SystemHandler exposes background job status and manual runs
type SystemHandler struct {
	BaseHandler
	jobs JobRunner
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(jobs JobRunner) *SystemHandler {
	return &SystemHandler{jobs: jobs}
}

// ListJobs handles GET /system/jobs
func (h *SystemHandler) ListJobs(c *gin.Context) {
	h.Success(c, h.jobs.Status())
}

// RunJob handles POST /system/jobs/:name/run and waits for the run to finish
func (h *SystemHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	err := h.jobs.Trigger(c.Request.Context(), name)
	switch {
	case err == nil:
		h.Success(c, h.jobState(name))
	case errors.Is(err, scheduler.ErrJobNotFound):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "No job named "+name)
	case errors.Is(err, scheduler.ErrJobAlreadyRunning), errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, err.Error())
	default:
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Job "+name+" failed: "+err.Error())
	}
}

func (h *SystemHandler) jobState(name string) *scheduler.JobState {
	for _, state := range h.jobs.Status() {
		if state.Name == name {
			return &state
		}
	}
	return nil
}
