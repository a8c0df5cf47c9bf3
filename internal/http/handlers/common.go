package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/http/middleware"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "invalid_body", "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "invalid payload: "+err.Error(), nil)
		return false
	}
	return true
}

// idParam parses a positive int64 path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_id", "invalid "+name, gin.H{"field": name})
		return 0, false
	}
	return id, true
}

func callerOrAbort(c *gin.Context) (services.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return services.Caller{}, false
	}
	return caller, true
}

func pageQuery(c *gin.Context) domain.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(domain.DefaultPageSize)))
	return domain.Pagination{Page: page, PageSize: size}.Normalize()
}

// floatQuery parses a required float query parameter.
func floatQuery(c *gin.Context, name string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	v, err := strconv.ParseFloat(raw, 64)
	if raw == "" || err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", name+" must be a number", gin.H{"field": name})
		return 0, false
	}
	return v, true
}
