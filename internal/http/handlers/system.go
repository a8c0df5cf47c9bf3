package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for /api/routes.
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "bus booking service running"})
}

// DBCheck pings the booking store and, when a schema checker is wired, lists
// booking tables that are missing. Either failure is a 503.
func (h *Handler) DBCheck(c *gin.Context) {
	if h.DB == nil {
		respondError(c, http.StatusServiceUnavailable, "service_unavailable", "booking store not connected", nil)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	started := time.Now()
	if err := h.DB.PingContext(ctx); err != nil {
		respondError(c, http.StatusServiceUnavailable, "service_unavailable", "booking store unreachable: "+err.Error(), nil)
		return
	}
	pingMs := time.Since(started).Milliseconds()

	if h.Schema != nil {
		missing, err := h.Schema.MissingTables(ctx)
		if err != nil {
			respondError(c, http.StatusServiceUnavailable, "service_unavailable", "booking schema check failed: "+err.Error(), nil)
			return
		}
		if len(missing) > 0 {
			respondError(c, http.StatusServiceUnavailable, "schema_incomplete", "booking tables missing", gin.H{"missing": missing})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "mysql", "ping_ms": pingMs, "schema_checked": h.Schema != nil})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		respondError(c, http.StatusServiceUnavailable, "service_unavailable", "router not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{"method": rt.Method, "path": rt.Path})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
