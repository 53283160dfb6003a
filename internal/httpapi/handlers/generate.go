package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kpiotrowski/flashforge/internal/common"
	"github.com/kpiotrowski/flashforge/internal/generation"
)

type generateRequest struct {
	InputText         string `json:"input_text"`
	AdditionalOptions struct {
		Model string `json:"model"`
	} `json:"additional_options"`
}

// GenerateFlashcards runs the generation pipeline synchronously and
// answers with the proposal list plus provenance ids.
func (h *Handler) GenerateFlashcards(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	uid := userID(c)
	if !h.allowGeneration(c, uid) {
		return
	}

	result, err := h.GenSvc.Generate(c.Request.Context(), generation.Command{
		InputText: req.InputText,
		Model:     req.AdditionalOptions.Model,
		UserID:    &uid,
	})
	if err != nil {
		failGeneration(c, err)
		return
	}
	common.OK(c, result)
}

// allowGeneration enforces the per-user rate limit. A Redis outage does
// not block generation, it only loses the limit.
func (h *Handler) allowGeneration(c *gin.Context, uid uint64) bool {
	if h.Redis == nil {
		return true
	}
	ok, err := h.Redis.AllowGeneration(c.Request.Context(), uid,
		h.Cfg.GenerationLimit, h.Cfg.GenerationWindow())
	if err != nil {
		log.Printf("generation rate limit check for user %d failed: %v", uid, err)
		return true
	}
	if !ok {
		common.Fail(c, http.StatusTooManyRequests, http.StatusTooManyRequests,
			fmt.Sprintf("generation limit of %d per %s reached", h.Cfg.GenerationLimit, h.Cfg.GenerationWindow()))
		c.Abort()
		return false
	}
	return true
}

func failGeneration(c *gin.Context, err error) {
	if ge, ok := generation.AsError(err); ok {
		common.FailWithDetails(c, ge.Status, ge.Status, ge.Message, ge.Details)
		return
	}
	common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "generation failed")
}

type asyncJobResponse struct {
	JobID  string               `json:"job_id"`
	Status generation.JobStatus `json:"status"`
}

// GenerateFlashcardsAsync enqueues the generation for the worker. Repeating
// a request with the same Idempotency-Key returns the original job.
func (h *Handler) GenerateFlashcardsAsync(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}
	if n := len(req.InputText); n < generation.MinInputLength || n > generation.MaxInputLength {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest,
			fmt.Sprintf("input_text must be between %d and %d characters, got %d",
				generation.MinInputLength, generation.MaxInputLength, n))
		return
	}

	var idempotencyKey *string
	if k := strings.TrimSpace(c.GetHeader("Idempotency-Key")); k != "" {
		if len(k) > 128 {
			common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "Idempotency-Key exceeds 128 characters")
			return
		}
		idempotencyKey = &k
	}

	uid := userID(c)
	if !h.allowGeneration(c, uid) {
		return
	}

	id, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not create job id")
		return
	}
	job := &generation.Job{
		ID:             id,
		UserID:         uid,
		InputText:      req.InputText,
		Model:          req.AdditionalOptions.Model,
		IdempotencyKey: idempotencyKey,
		Status:         generation.JobQueued,
	}

	job, created, err := h.GenRepo.CreateJobOrGetExisting(c.Request.Context(), job)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not enqueue job")
		return
	}
	if created {
		if err := h.Rabbit.PublishJob(c.Request.Context(), job.ID); err != nil {
			common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not publish job")
			return
		}
	}
	c.JSON(http.StatusAccepted, asyncJobResponse{JobID: job.ID, Status: job.Status})
}

type jobStatusResponse struct {
	JobID        string                `json:"job_id"`
	Status       generation.JobStatus  `json:"status"`
	GenerationID *string               `json:"generation_id,omitempty"`
	Proposals    []generation.Proposal `json:"proposals,omitempty"`
	ErrorCode    *string               `json:"error_code,omitempty"`
	Error        *string               `json:"error,omitempty"`
}

// GetGenerationJob reports job progress. Jobs of other users answer 404 so
// ids do not leak.
func (h *Handler) GetGenerationJob(c *gin.Context) {
	job, err := h.GenRepo.GetJobByID(c.Request.Context(), c.Param("id"))
	if err != nil || job.UserID != userID(c) {
		common.Fail(c, http.StatusNotFound, http.StatusNotFound, "job not found")
		return
	}

	resp := jobStatusResponse{
		JobID:        job.ID,
		Status:       job.Status,
		GenerationID: job.GenerationID,
		ErrorCode:    job.ErrorCode,
		Error:        job.Error,
	}
	if job.Proposals != nil {
		resp.Proposals = generation.DecodeProposals(*job.Proposals)
	}
	common.OK(c, resp)
}
