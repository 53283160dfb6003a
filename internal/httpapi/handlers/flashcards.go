package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kpiotrowski/flashforge/internal/common"
	"github.com/kpiotrowski/flashforge/internal/flashcard"
	"github.com/kpiotrowski/flashforge/internal/generation"
	"gorm.io/gorm"
)

type pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

type flashcardListResponse struct {
	Flashcards []flashcard.Flashcard `json:"flashcards"`
	Pagination pagination            `json:"pagination"`
}

func (h *Handler) ListFlashcards(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	} else if perPage > 100 {
		perPage = 100
	}

	cards, total, err := h.Cards.List(c.Request.Context(), userID(c), page, perPage)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not list flashcards")
		return
	}
	common.OK(c, flashcardListResponse{
		Flashcards: cards,
		Pagination: pagination{Page: page, PerPage: perPage, Total: total},
	})
}

type createFlashcardRequest struct {
	Front        string  `json:"front"`
	Back         string  `json:"back"`
	SourceID     *string `json:"source_id"`
	GenerationID *string `json:"generation_id"`
	CollectionID *string `json:"collection_id"`
	Edited       bool    `json:"edited"`
}

func validateCard(front, back string) (int, string) {
	switch {
	case strings.TrimSpace(front) == "":
		return http.StatusBadRequest, "front must not be empty"
	case strings.TrimSpace(back) == "":
		return http.StatusBadRequest, "back must not be empty"
	case len(front) > generation.MaxFrontLength:
		return http.StatusBadRequest, "front exceeds 500 characters"
	case len(back) > generation.MaxBackLength:
		return http.StatusBadRequest, "back exceeds 1000 characters"
	}
	return 0, ""
}

// CreateFlashcard saves a card. When generation_id is present the card is
// an accepted AI proposal and the generation's accepted counters are bumped.
func (h *Handler) CreateFlashcard(c *gin.Context) {
	var req createFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}
	if status, msg := validateCard(req.Front, req.Back); status != 0 {
		common.Fail(c, status, status, msg)
		return
	}

	card := &flashcard.Flashcard{
		ID:           uuid.NewString(),
		UserID:       userID(c),
		Front:        req.Front,
		Back:         req.Back,
		SourceID:     req.SourceID,
		GenerationID: req.GenerationID,
		CollectionID: req.CollectionID,
	}
	if err := h.Cards.Create(c.Request.Context(), card); err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not create flashcard")
		return
	}

	if req.GenerationID != nil {
		// best effort, the card is already saved
		if err := h.GenRepo.IncrementAccepted(c.Request.Context(), *req.GenerationID, req.Edited); err != nil {
			log.Printf("accepted counter for generation %s failed: %v", *req.GenerationID, err)
		}
	}
	common.Created(c, card)
}

type updateFlashcardRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

func (h *Handler) UpdateFlashcard(c *gin.Context) {
	var req updateFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}
	if status, msg := validateCard(req.Front, req.Back); status != 0 {
		common.Fail(c, status, status, msg)
		return
	}

	id := c.Param("id")
	if err := h.Cards.Update(c.Request.Context(), userID(c), id, req.Front, req.Back); err != nil {
		failCardLookup(c, err)
		return
	}
	card, err := h.Cards.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failCardLookup(c, err)
		return
	}
	common.OK(c, card)
}

type assignCollectionRequest struct {
	CollectionID *string `json:"collection_id"`
}

// AssignCollection moves a card into a collection, or out of any
// collection when collection_id is null.
func (h *Handler) AssignCollection(c *gin.Context) {
	var req assignCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	uid := userID(c)
	if req.CollectionID != nil {
		if _, err := h.Cards.GetCollection(c.Request.Context(), uid, *req.CollectionID); err != nil {
			common.Fail(c, http.StatusNotFound, http.StatusNotFound, "collection not found")
			return
		}
	}
	if err := h.Cards.SetCollection(c.Request.Context(), uid, c.Param("id"), req.CollectionID); err != nil {
		failCardLookup(c, err)
		return
	}
	card, err := h.Cards.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failCardLookup(c, err)
		return
	}
	common.OK(c, card)
}

func (h *Handler) DeleteFlashcard(c *gin.Context) {
	if err := h.Cards.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failCardLookup(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func failCardLookup(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		common.Fail(c, http.StatusNotFound, http.StatusNotFound, "flashcard not found")
		return
	}
	common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "flashcard operation failed")
}
