package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/:id/ticket
func (h *Handler) GetETicketPDF(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	pdfBytes, filename, err := h.docs(c).GenerateETicket(c.Request.Context(), id, caller)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	servePDF(c, filename, pdfBytes)
}

// GET /api/bookings/:id/receipt
func (h *Handler) GetReceiptPDF(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	pdfBytes, filename, err := h.docs(c).GenerateReceipt(c.Request.Context(), id, caller)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	servePDF(c, filename, pdfBytes)
}

func servePDF(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", body)
}
