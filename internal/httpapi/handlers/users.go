package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kpiotrowski/flashforge/internal/auth"
	"github.com/kpiotrowski/flashforge/internal/common"
	"github.com/kpiotrowski/flashforge/internal/email"
	"github.com/kpiotrowski/flashforge/internal/httpapi/middleware"
	"github.com/kpiotrowski/flashforge/internal/models"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

func userID(c *gin.Context) uint64 {
	return c.GetUint64(middleware.UserIDKey)
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a user account and returns a signed token so the
// client can skip a separate login round trip.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = req.Email[:strings.Index(req.Email, "@")]
	}
	if len(username) > 64 {
		username = username[:64]
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not hash password")
		return
	}

	user := &models.User{Email: req.Email, Username: username, PasswordHash: hash}
	if err := h.DB.WithContext(c.Request.Context()).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			common.Fail(c, http.StatusConflict, http.StatusConflict, "email or username already taken")
			return
		}
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not create user")
		return
	}

	if h.SMTPSetting.Host != "" {
		go func(to, name string) {
			if err := email.SendText(h.SMTPSetting, to, "Welcome to FlashForge",
				"Hi "+name+",\n\nYour account is ready. Paste a text and start generating flashcards.\n"); err != nil {
				log.Printf("welcome email to %s failed: %v", to, err)
			}
		}(user.Email, user.Username)
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not sign token")
		return
	}
	common.Created(c, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where("email = ?", strings.TrimSpace(strings.ToLower(req.Email))).
		First(&user).Error
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// same answer for unknown email and wrong password
		common.Fail(c, http.StatusUnauthorized, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "could not sign token")
		return
	}
	common.OK(c, authResponse{Token: token, User: &user})
}

func (h *Handler) Me(c *gin.Context) {
	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, userID(c)).Error; err != nil {
		common.Fail(c, http.StatusNotFound, http.StatusNotFound, "user not found")
		return
	}
	common.OK(c, &user)
}
