package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	documentdomain "github.com/studioops/billing/internal/document/domain"
)

type transitionDocumentRequest struct {
	ToStatus string `json:"to_status"`
	Reason   string `json:"reason"`
}

// @Summary      Create Document
// @Description  Create a draft quote or bill
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body documentdomain.CreateRequest true "Create Document Request"
// @Success      201  {object}  documentdomain.Document
// @Router       /documents [post]
func (s *Server) CreateDocument(c *gin.Context) {
	var req documentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// @Summary      List Documents
// @Description  List documents filtered by type, status, or counterpart
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        type           query  string  false  "Document Type"
// @Param        status         query  string  false  "Status"
// @Param        counterpart_id query  string  false  "Counterpart ID"
// @Param        limit          query  int     false  "Limit"
// @Success      200  {object}  []documentdomain.Document
// @Router       /documents [get]
func (s *Server) ListDocuments(c *gin.Context) {
	var req documentdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Document
// @Description  Get a document with its items
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  documentdomain.Document
// @Router       /documents/{id} [get]
func (s *Server) GetDocument(c *gin.Context) {
	resp, err := s.documentSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Document
// @Description  Replace the mutable fields of a draft document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id      path  string                        true  "Document ID"
// @Param        request body  documentdomain.UpdateRequest  true  "Update Document Request"
// @Success      200  {object}  documentdomain.Document
// @Router       /documents/{id} [put]
func (s *Server) UpdateDocument(c *gin.Context) {
	var req documentdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Transition Document
// @Description  Move a document to SCHEDULED or CANCELLED
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id      path  string                     true  "Document ID"
// @Param        request body  transitionDocumentRequest  true  "Transition Request"
// @Success      200  {object}  documentdomain.Document
// @Router       /documents/{id}/status [patch]
func (s *Server) TransitionDocument(c *gin.Context) {
	var req transitionDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	status := documentdomain.DocumentStatus(strings.ToUpper(strings.TrimSpace(req.ToStatus)))
	if status == "" {
		AbortWithError(c, newValidationError("to_status", "to_status_required", "to_status is required"))
		return
	}

	resp, err := s.documentSvc.Transition(c.Request.Context(), c.Param("id"), status, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
