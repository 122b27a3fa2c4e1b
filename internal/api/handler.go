package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"seta-admin-backend/internal/broadcast"
	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/mw"
	"seta-admin-backend/internal/notification"
	"seta-admin-backend/internal/registry"
	"seta-admin-backend/internal/store"
	"seta-admin-backend/internal/upstream"
)

// Refresher refetches collections from the upstream API.
type Refresher interface {
	Refresh(ctx context.Context, name string) error
	RefreshAll(ctx context.Context) error
}

// Mutator forwards record changes to the upstream API.
type Mutator interface {
	Create(ctx context.Context, path string, rec listing.Record) (listing.Record, error)
	Update(ctx context.Context, path, id string, rec listing.Record) (listing.Record, error)
	Delete(ctx context.Context, path, id string) error
}

// Notifier queues toasts for push delivery.
type Notifier interface {
	Dispatch(t notification.Toast) bool
}

// Deps are the components the handlers are built from. Notifier and
// Webpush may be nil when push is not configured.
type Deps struct {
	Views     []listing.View
	Registry  *registry.Registry
	Hub       *broadcast.Hub[registry.Event]
	Refresher Refresher
	Upstream  Mutator
	Store     store.Store
	Notifier  Notifier
	Webpush   *webpush.Options
	Log       *zap.SugaredLogger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	views     map[string]listing.View
	order     []listing.View
	registry  *registry.Registry
	hub       *broadcast.Hub[registry.Event]
	refresher Refresher
	upstream  Mutator
	store     store.Store
	notifier  Notifier
	webpush   *webpush.Options
	log       *zap.SugaredLogger

	sessions  *sessionStore
	responses *cache.Cache
	keepAlive time.Duration
	// done ends long-lived streams when the service shuts down.
	done context.Context
}

// NewHandler creates a new API handler.
func NewHandler(d Deps, sessionTTL time.Duration, responses *cache.Cache) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &Handler{
		views:     make(map[string]listing.View, len(d.Views)),
		order:     d.Views,
		registry:  d.Registry,
		hub:       d.Hub,
		refresher: d.Refresher,
		upstream:  d.Upstream,
		store:     d.Store,
		notifier:  d.Notifier,
		webpush:   d.Webpush,
		log:       log.Named("api"),
		sessions:  newSessionStore(sessionTTL),
		responses: responses,
		keepAlive: 25 * time.Second,
		done:      context.Background(),
	}
	for _, v := range d.Views {
		h.views[v.Name] = v
	}
	return h
}

// GetHealth reports liveness and how many collections are loaded.
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"collections": len(h.registry.Names()),
		"views":       len(h.order),
	})
}

// view resolves the :view parameter, answering 404 when it is unknown.
func (h *Handler) view(c *gin.Context) (listing.View, bool) {
	v, ok := h.views[c.Param("view")]
	if !ok {
		respondError(c, http.StatusNotFound, "view_not_found", "unknown view "+c.Param("view"))
	}
	return v, ok
}

// invalidate drops the cached responses affected by a change to collection.
func (h *Handler) invalidate(collection string) {
	if h.responses == nil {
		return
	}
	for _, name := range registry.Dependents(h.order, collection) {
		mw.InvalidatePath(h.responses, "/api/views/"+name)
	}
	mw.InvalidateQueries(h.responses, "/api/views")
}

// watchInvalidation invalidates cached responses on every registry change
// until ctx is done.
func (h *Handler) watchInvalidation(ctx context.Context) {
	for ev := range h.hub.Subscribe(ctx) {
		h.invalidate(ev.Collection)
	}
}

func (h *Handler) notify(t notification.Toast) {
	if h.notifier != nil {
		h.notifier.Dispatch(t)
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	mw.AbortWithError(c, status, code, message)
}

// respondUpstreamError maps an upstream failure onto the response. Client
// errors reported by the upstream API are passed through; anything else is
// a bad gateway.
func respondUpstreamError(c *gin.Context, err error) {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
		msg := statusErr.Body
		if msg == "" {
			msg = statusErr.Error()
		}
		respondError(c, statusErr.Code, "upstream_rejected", msg)
		return
	}
	respondError(c, http.StatusBadGateway, "upstream_error", err.Error())
}
