package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kpiotrowski/flashforge/internal/common"
	"github.com/kpiotrowski/flashforge/internal/flashcard"
	"gorm.io/gorm"
)

type collectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r collectionRequest) validate() (int, string) {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return http.StatusBadRequest, "name must not be empty"
	case len(r.Name) > 100:
		return http.StatusBadRequest, "name exceeds 100 characters"
	case len(r.Description) > 500:
		return http.StatusBadRequest, "description exceeds 500 characters"
	}
	return 0, ""
}

func (h *Handler) ListCollections(c *gin.Context) {
	cols, err := h.Cards.ListCollections(c.Request.Context(), userID(c))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not list collections")
		return
	}
	common.OK(c, gin.H{"collections": cols})
}

func (h *Handler) CreateCollection(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}
	if status, msg := req.validate(); status != 0 {
		common.Fail(c, status, status, msg)
		return
	}

	col := &flashcard.Collection{
		ID:          uuid.NewString(),
		UserID:      userID(c),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.Cards.CreateCollection(c.Request.Context(), col); err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not create collection")
		return
	}
	common.Created(c, col)
}

// GetCollection answers the collection together with its cards.
func (h *Handler) GetCollection(c *gin.Context) {
	uid := userID(c)
	col, err := h.Cards.GetCollection(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failCollectionLookup(c, err)
		return
	}
	cards, err := h.Cards.ListByCollection(c.Request.Context(), uid, col.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not list collection flashcards")
		return
	}
	common.OK(c, gin.H{"collection": col, "flashcards": cards})
}

func (h *Handler) UpdateCollection(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}
	if status, msg := req.validate(); status != 0 {
		common.Fail(c, status, status, msg)
		return
	}

	uid := userID(c)
	id := c.Param("id")
	if err := h.Cards.UpdateCollection(c.Request.Context(), uid, id, req.Name, req.Description); err != nil {
		failCollectionLookup(c, err)
		return
	}
	col, err := h.Cards.GetCollection(c.Request.Context(), uid, id)
	if err != nil {
		failCollectionLookup(c, err)
		return
	}
	common.OK(c, col)
}

// DeleteCollection removes the collection; its cards survive detached.
func (h *Handler) DeleteCollection(c *gin.Context) {
	if err := h.Cards.DeleteCollection(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failCollectionLookup(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func failCollectionLookup(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		common.Fail(c, http.StatusNotFound, http.StatusNotFound, "collection not found")
		return
	}
	common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "collection operation failed")
}
