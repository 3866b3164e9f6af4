package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/studioops/billing/internal/payment/domain"
)

// @Summary      Apply Payment
// @Description  Apply a payment to a document. Retrying with the same idempotency key replays the original result.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id      path  string                      true  "Document ID"
// @Param        request body  paymentdomain.ApplyRequest  true  "Apply Payment Request"
// @Success      201  {object}  paymentdomain.ApplyResult
// @Success      200  {object}  paymentdomain.ApplyResult "replayed"
// @Router       /documents/{id}/payments [post]
func (s *Server) ApplyPayment(c *gin.Context) {
	var req paymentdomain.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Apply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": resp})
}

// @Summary      List Payments
// @Description  List payments applied to a document
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  []paymentdomain.Payment
// @Router       /documents/{id}/payments [get]
func (s *Server) ListPayments(c *gin.Context) {
	resp, err := s.paymentSvc.ListByDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
