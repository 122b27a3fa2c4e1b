package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"

	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/registry"
)

type viewSummary struct {
	Name         string            `json:"name"`
	Path         string            `json:"path"`
	PageSize     int               `json:"page_size"`
	SearchFields []string          `json:"search_fields"`
	FilterFields []string          `json:"filter_fields"`
	DateField    string            `json:"date_field,omitempty"`
	DefaultSort  *listing.SortSpec `json:"default_sort,omitempty"`
	Relations    []string          `json:"relations,omitempty"`
	Loaded       bool              `json:"loaded"`
	RecordCount  int               `json:"record_count"`
	FetchedAt    *time.Time        `json:"fetched_at,omitempty"`
	Source       registry.Source   `json:"source,omitempty"`
}

type listResponse struct {
	listing.Result
	Loaded    bool       `json:"loaded"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

// ListViews returns the view catalog with the state of each collection.
func (h *Handler) ListViews(c *gin.Context) {
	out := make([]viewSummary, 0, len(h.order))
	for _, v := range h.order {
		s := viewSummary{
			Name:         v.Name,
			Path:         v.Path,
			PageSize:     v.EffectivePageSize(),
			SearchFields: v.SearchFields,
			FilterFields: v.FilterFields,
			DateField:    v.DateField,
			DefaultSort:  v.DefaultSort,
		}
		for _, rel := range v.Relations {
			s.Relations = append(s.Relations, rel.Name)
		}
		if col, ok := h.registry.Get(v.Name); ok {
			s.Loaded = true
			s.RecordCount = len(col.Records)
			s.Source = col.Source
			if !col.FetchedAt.IsZero() {
				fetchedAt := col.FetchedAt
				s.FetchedAt = &fetchedAt
			}
		}
		out = append(out, s)
	}
	c.JSON(http.StatusOK, gin.H{"views": out})
}

// GetView renders one page of a view from query parameters alone.
func (h *Handler) GetView(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	st, rerr := parseListQuery(c, v)
	if rerr != nil {
		respondError(c, http.StatusBadRequest, rerr.code, rerr.message)
		return
	}
	c.JSON(http.StatusOK, h.render(v, st))
}

func (h *Handler) render(v listing.View, st listing.ViewState) listResponse {
	col, loaded := h.registry.Get(v.Name)
	resp := listResponse{
		Result: listing.Execute(v, col.Records, h.registry.Lookups(v), st),
		Loaded: loaded,
	}
	if loaded && !col.FetchedAt.IsZero() {
		resp.FetchedAt = &col.FetchedAt
	}
	return resp
}

// GetRecord returns one record of a view with its relations attached.
func (h *Handler) GetRecord(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	rec, found := v.Find(h.registry.Records(v.Name), c.Param("id"))
	if !found {
		respondError(c, http.StatusNotFound, "record_not_found", "no "+v.Name+" record with id "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": listing.Project(rec, v.Lookups(h.registry.Lookups(v))...)})
}

// RefreshView refetches the view's collection now.
func (h *Handler) RefreshView(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	if err := h.refresher.Refresh(c.Request.Context(), v.Name); err != nil {
		respondError(c, http.StatusBadGateway, "refresh_failed", err.Error())
		return
	}
	h.invalidate(v.Name)
	col, _ := h.registry.Get(v.Name)
	c.JSON(http.StatusOK, gin.H{"collection": v.Name, "record_count": len(col.Records), "fetched_at": col.FetchedAt})
}

// RefreshAll refetches every collection. Collections that could not be
// fetched are listed in the error message; the others are still replaced.
func (h *Handler) RefreshAll(c *gin.Context) {
	err := h.refresher.RefreshAll(c.Request.Context())
	for _, v := range h.order {
		h.invalidate(v.Name)
	}
	if err != nil {
		failed := 1
		var merr *multierror.Error
		if errors.As(err, &merr) {
			failed = len(merr.Errors)
		}
		h.log.Warnw("manual refresh incomplete", "failed", failed, "error", err)
		respondError(c, http.StatusBadGateway, "refresh_failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": h.registry.Names()})
}
