package echo

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/place-ingest/internal/application/ingest"
)

type JobHandler struct {
	startJob app.StartJob
	getJob   app.GetJob
	retryJob app.RetryJob
}

type createJobRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewJobHandler(startJob app.StartJob, getJob app.GetJob, retryJob app.RetryJob) *JobHandler {
	return &JobHandler{startJob: startJob, getJob: getJob, retryJob: retryJob}
}

func (h *JobHandler) CreateJob(c echo.Context) error {
	var req createJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.startJob.Execute(c.Request().Context(), app.StartJobInput{
		Type:    req.Type,
		Payload: req.Payload,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidJobType) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_job_type",
				Message: "type must be one of search_ingest, refresh, site_association, search_sync",
			}})
		}
		if errors.Is(err, app.ErrInvalidJobPayload) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_payload",
				Message: err.Error(),
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to enqueue job",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *JobHandler) GetJob(c echo.Context) error {
	out, err := h.getJob.Execute(c.Request().Context(), app.GetJobInput{
		ID: c.Param("id"),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidJobID) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_job_id",
				Message: "id must be a valid UUID",
			}})
		}
		if errors.Is(err, app.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "job not found",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to get job",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *JobHandler) RetryJob(c echo.Context) error {
	out, err := h.retryJob.Execute(c.Request().Context(), app.RetryJobInput{
		ID: c.Param("id"),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidJobID) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_job_id",
				Message: "id must be a valid UUID",
			}})
		}
		if errors.Is(err, app.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "job not found",
			}})
		}
		if errors.Is(err, app.ErrJobNotRetryable) {
			return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
				Code:    "not_retryable",
				Message: "job is not failed or has exhausted its attempts",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to retry job",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}
