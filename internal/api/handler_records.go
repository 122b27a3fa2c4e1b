package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/notification"
)

type mutationResponse struct {
	Record    listing.Record `json:"record,omitempty"`
	Refreshed bool           `json:"refreshed"`
}

// CreateRecord forwards a new record to the upstream API.
func (h *Handler) CreateRecord(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	var rec listing.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be a JSON object")
		return
	}
	created, err := h.upstream.Create(c.Request.Context(), v.Path, rec)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.afterMutation(c, v, created, "created"))
}

// UpdateRecord forwards a replacement record to the upstream API.
func (h *Handler) UpdateRecord(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	var rec listing.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be a JSON object")
		return
	}
	updated, err := h.upstream.Update(c.Request.Context(), v.Path, c.Param("id"), rec)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.afterMutation(c, v, updated, "updated"))
}

// DeleteRecord asks the upstream API to remove a record.
func (h *Handler) DeleteRecord(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	if err := h.upstream.Delete(c.Request.Context(), v.Path, c.Param("id")); err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.afterMutation(c, v, nil, "deleted"))
}

// afterMutation refetches the collection so the registry reflects the
// change, then announces it.
func (h *Handler) afterMutation(c *gin.Context, v listing.View, rec listing.Record, verb string) mutationResponse {
	resp := mutationResponse{Record: rec}
	if err := h.refresher.Refresh(c.Request.Context(), v.Name); err != nil {
		h.log.Warnw("refetch after mutation failed", "collection", v.Name, "error", err)
	} else {
		resp.Refreshed = true
	}
	h.invalidate(v.Name)
	h.notify(notification.Toast{
		Collection: v.Name,
		Level:      notification.LevelSuccess,
		Title:      fmt.Sprintf("Record %s", verb),
		Message:    fmt.Sprintf("A %s record was %s.", v.Name, verb),
	})
	return resp
}
