package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	user, err := h.auth(c).Profile(c.Request.Context(), caller.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
