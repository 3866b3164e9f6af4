package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	subscriptiondomain "github.com/studioops/billing/internal/subscription/domain"
)

type setSubscriptionActiveRequest struct {
	Active *bool `json:"active"`
}

// @Summary      Create Subscription
// @Description  Create a recurring billing template
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request body subscriptiondomain.CreateRequest true "Create Subscription Request"
// @Success      201  {object}  subscriptiondomain.SubscriptionTemplate
// @Router       /subscriptions [post]
func (s *Server) CreateSubscription(c *gin.Context) {
	var req subscriptiondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// @Summary      List Subscriptions
// @Description  List subscription templates
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        counterpart_id query  string  false  "Counterpart ID"
// @Param        active         query  bool    false  "Active"
// @Param        limit          query  int     false  "Limit"
// @Success      200  {object}  []subscriptiondomain.SubscriptionTemplate
// @Router       /subscriptions [get]
func (s *Server) ListSubscriptions(c *gin.Context) {
	var req subscriptiondomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Subscription
// @Description  Get a subscription template with its items
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  subscriptiondomain.SubscriptionTemplate
// @Router       /subscriptions/{id} [get]
func (s *Server) GetSubscription(c *gin.Context) {
	resp, err := s.subscriptionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Subscription
// @Description  Replace the template definition; the run anchor is kept
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id      path  string                          true  "Subscription ID"
// @Param        request body  subscriptiondomain.UpdateRequest true "Update Subscription Request"
// @Success      200  {object}  subscriptiondomain.SubscriptionTemplate
// @Router       /subscriptions/{id} [patch]
func (s *Server) UpdateSubscription(c *gin.Context) {
	var req subscriptiondomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Activate or Deactivate Subscription
// @Description  Toggle whether a template participates in scheduled runs
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id      path  string                        true  "Subscription ID"
// @Param        request body  setSubscriptionActiveRequest  true  "Set Active Request"
// @Success      200  {object}  subscriptiondomain.SubscriptionTemplate
// @Router       /subscriptions/{id}/active [patch]
func (s *Server) SetSubscriptionActive(c *gin.Context) {
	var req setSubscriptionActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Active == nil {
		AbortWithError(c, newValidationError("active", "active_required", "active is required"))
		return
	}

	resp, err := s.subscriptionSvc.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Run Subscription
// @Description  Execute one billing cycle now, producing a scheduled bill
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      201  {object}  subscriptiondomain.RunResult
// @Router       /subscriptions/{id}/run [post]
func (s *Server) RunSubscription(c *gin.Context) {
	resp, err := s.subscriptionSvc.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
