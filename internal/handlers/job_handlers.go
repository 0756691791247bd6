package handlers

import (
	"errors"
	"net/http"

	"natours/internal/common"
	"natours/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

// JobRunner is the part of the background scheduler exposed to admins
type JobRunner interface {
	GetJobStatus() []background.JobStatus
	RunNow(name string) error
}

type JobHandlers struct {
	jobs JobRunner
}

func NewJobHandlers(jobs JobRunner) *JobHandlers {
	return &JobHandlers{jobs: jobs}
}

// ListJobs shows every scheduled maintenance job with its last and next run
func (h *JobHandlers) ListJobs(c echo.Context) error {
	return common.SendList(c, h.jobs.GetJobStatus())
}

// RunJob triggers a job immediately. The job runs in the background.
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	if err := h.jobs.RunNow(name); err != nil {
		if errors.Is(err, background.ErrUnknownJob) {
			return common.NewAppErrorf(http.StatusNotFound, "No job named %s", name)
		}
		return err
	}
	return c.JSON(http.StatusAccepted, common.Response{
		Status:  common.StatusSuccess,
		Message: "Job " + name + " started",
	})
}
