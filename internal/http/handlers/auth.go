package handlers

import (
	"net/http"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.auth(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.auth(c)
	user, err := svc.Register(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	token, err := svc.IssueToken(user.ID, user.Role)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registration successful", "token": token, "user": user})
}
