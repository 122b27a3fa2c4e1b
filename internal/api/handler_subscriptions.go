package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"seta-admin-backend/internal/model"
	"seta-admin-backend/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint    string   `json:"endpoint" binding:"required"`
	P256DH      string   `json:"p256dh" binding:"required"`
	Auth        string   `json:"auth" binding:"required"`
	Collections []string `json:"collections"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}
	for _, name := range req.Collections {
		if _, ok := h.views[name]; !ok {
			respondError(c, http.StatusBadRequest, "unknown_collection", "unknown collection "+name)
			return
		}
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.PutSubscription(c.Request.Context(), subscription, req.Collections); err != nil {
		h.log.Errorw("failed to save subscription", "error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to save subscription")
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.log.Errorw("failed to delete subscription", "error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to delete subscription")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		respondError(c, http.StatusBadRequest, "invalid_request", "endpoint is required")
		return
	}

	subscription, err := h.store.GetSubscription(c.Request.Context(), endpoint)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "subscription_not_found", "subscription not found")
		return
	}
	if err != nil {
		h.log.Errorw("failed to load subscription", "error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to load subscription")
		return
	}

	names := make([]string, len(subscription.Collections))
	for i, col := range subscription.Collections {
		names[i] = col.Name
	}
	c.JSON(http.StatusOK, gin.H{"collections": names})
}
