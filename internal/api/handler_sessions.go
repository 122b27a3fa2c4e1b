package api

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"seta-admin-backend/internal/listing"
)

// CreateSession starts a dashboard session with its own view states.
func (h *Handler) CreateSession(c *gin.Context) {
	id, _ := h.sessions.create()
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func (h *Handler) session(c *gin.Context) (*listing.Workspace, bool) {
	ws, ok := h.sessions.get(c.Param("sid"))
	if !ok {
		respondError(c, http.StatusNotFound, "session_not_found", "session expired or unknown")
	}
	return ws, ok
}

type putSearchRequest struct {
	Search string `json:"search"`
}

// PutSessionSearch sets the navigation-bar search term of a session. It
// applies to every view of the session.
func (h *Handler) PutSessionSearch(c *gin.Context) {
	ws, ok := h.session(c)
	if !ok {
		return
	}
	var req putSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}
	ws.SetSearch(strings.TrimSpace(req.Search))
	c.JSON(http.StatusOK, gin.H{"search": ws.Search()})
}

// GetSessionView renders a view in the state the session left it in.
func (h *Handler) GetSessionView(c *gin.Context) {
	ws, ok := h.session(c)
	if !ok {
		return
	}
	v, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.render(v, ws.State(v)))
}

type patchViewRequest struct {
	Search  *string           `json:"search"`
	Filters map[string]string `json:"filters"`
	From    *string           `json:"from"`
	To      *string           `json:"to"`
	Sort    string            `json:"sort"`
	Page    *int              `json:"page"`
}

// PatchSessionView applies UI actions to a session's view state and renders
// the result. Fields are applied in order search, filters, dates, sort,
// page, so an explicit page survives the reset a filter change causes.
func (h *Handler) PatchSessionView(c *gin.Context) {
	ws, ok := h.session(c)
	if !ok {
		return
	}
	v, ok := h.view(c)
	if !ok {
		return
	}
	var req patchViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}

	fields := make([]string, 0, len(req.Filters))
	for field := range req.Filters {
		if !v.AllowsFilter(field) {
			respondError(c, http.StatusBadRequest, "unknown_filter", "view "+v.Name+" cannot be filtered by "+field)
			return
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var from, to *time.Time
	var err error
	if req.From != nil {
		if from, err = parseBound(*req.From); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_date", "from: "+err.Error())
			return
		}
	}
	if req.To != nil {
		if to, err = parseBound(*req.To); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_date", "to: "+err.Error())
			return
		}
	}
	if (from != nil || to != nil) && v.DateField == "" {
		respondError(c, http.StatusBadRequest, "unknown_filter", "view "+v.Name+" has no date field")
		return
	}

	st := ws.Update(v, func(st *listing.ViewState) {
		if req.Search != nil {
			st.SetSearch(strings.TrimSpace(*req.Search))
		}
		for _, field := range fields {
			st.SetFilter(field, req.Filters[field])
		}
		if req.From != nil || req.To != nil {
			nextFrom, nextTo := st.From, st.To
			if req.From != nil {
				nextFrom = from
			}
			if req.To != nil {
				nextTo = to
			}
			st.SetDateRange(nextFrom, nextTo)
		}
		if req.Sort != "" {
			st.ToggleSort(req.Sort)
		}
		if req.Page != nil {
			st.SetPage(*req.Page)
		}
	})
	c.JSON(http.StatusOK, h.render(v, st))
}
