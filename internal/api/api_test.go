package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seta-admin-backend/config"
	"seta-admin-backend/internal/broadcast"
	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/notification"
	"seta-admin-backend/internal/registry"
	"seta-admin-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRefresher serves collections from memory instead of the upstream API.
type fakeRefresher struct {
	mu    sync.Mutex
	reg   *registry.Registry
	data  map[string][]listing.Record
	err   error
	calls []string
}

func (f *fakeRefresher) Refresh(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.err != nil {
		return f.err
	}
	f.reg.Replace(registry.Collection{Name: name, Records: f.data[name], FetchedAt: time.Now().UTC(), Source: registry.SourceFetch})
	return nil
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) error {
	for _, name := range []string{"students", "host_companies", "placements"} {
		if err := f.Refresh(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRefresher) set(name string, records []listing.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[name] = records
}

type mutation struct {
	method, path, id string
	rec              listing.Record
}

type fakeUpstream struct {
	mu   sync.Mutex
	seen []mutation
	err  error
}

func (f *fakeUpstream) record(m mutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, m)
	return f.err
}

func (f *fakeUpstream) Create(_ context.Context, path string, rec listing.Record) (listing.Record, error) {
	if err := f.record(mutation{method: http.MethodPost, path: path, rec: rec}); err != nil {
		return nil, err
	}
	out := listing.Record{"id": "s-new"}
	for k, v := range rec {
		out[k] = v
	}
	return out, nil
}

func (f *fakeUpstream) Update(_ context.Context, path, id string, rec listing.Record) (listing.Record, error) {
	return rec, f.record(mutation{method: http.MethodPut, path: path, id: id, rec: rec})
}

func (f *fakeUpstream) Delete(_ context.Context, path, id string) error {
	return f.record(mutation{method: http.MethodDelete, path: path, id: id})
}

type fakeNotifier struct {
	mu     sync.Mutex
	toasts []notification.Toast
}

func (f *fakeNotifier) Dispatch(t notification.Toast) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, t)
	return true
}

func testViews() []listing.View {
	return []listing.View{
		{
			Name:         "students",
			Path:         "/students",
			IDField:      "id",
			PageSize:     2,
			SearchFields: []string{"first_name", "surname"},
			FilterFields: []string{"status"},
			DateField:    "registered_at",
			DefaultSort:  &listing.SortSpec{Field: "surname", Direction: listing.Asc},
		},
		{Name: "host_companies", Path: "/host-companies", IDField: "id"},
		{
			Name:     "placements",
			Path:     "/placements",
			IDField:  "id",
			PageSize: 10,
			Relations: []listing.Relation{
				{Name: "learner", Collection: "students", LocalKey: "learner_id", ForeignKey: "id"},
				{Name: "company", Collection: "host_companies", LocalKey: "company_id", ForeignKey: "id"},
			},
		},
	}
}

func seedData() map[string][]listing.Record {
	return map[string][]listing.Record{
		"students": {
			{"id": "s1", "first_name": "Thandi", "surname": "Mokoena", "status": "Active", "registered_at": "2024-01-15"},
			{"id": "s2", "firstName": "Sipho", "Surname": "Dlamini", "status": "active", "registered_at": "2024-02-03"},
			{"id": "s3", "first_name": "Anele", "surname": "Zulu", "status": "Completed", "registered_at": "2024-02-29"},
			{"id": "s4", "first_name": "Lerato", "surname": "Botha", "status": "Active"},
		},
		"host_companies": {
			{"id": "c1", "name": "Acme Engineering"},
		},
		"placements": {
			{"id": "p1", "learner_id": "s2", "company_id": "c1"},
			{"id": "p2", "learner_id": "s9", "company_id": "c1"},
		},
	}
}

type testEnv struct {
	router    *gin.Engine
	registry  *registry.Registry
	hub       *broadcast.Hub[registry.Event]
	refresher *fakeRefresher
	upstream  *fakeUpstream
	notifier  *fakeNotifier
	// stop cancels the context the router was built with.
	stop context.CancelFunc
}

func newTestEnv(t *testing.T, st store.Store) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := broadcast.NewHub[registry.Event](16)
	reg := registry.New(hub)
	env := &testEnv{
		registry:  reg,
		hub:       hub,
		refresher: &fakeRefresher{reg: reg, data: seedData()},
		upstream:  &fakeUpstream{},
		notifier:  &fakeNotifier{},
		stop:      cancel,
	}
	for name, records := range seedData() {
		reg.Replace(registry.Collection{Name: name, Records: records, FetchedAt: time.Now().UTC(), Source: registry.SourceFetch})
	}

	cfg := config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
		SessionTTL:      time.Minute,
		AllowedOrigins:  []string{"http://localhost:5173"},
	}
	env.router = NewRouter(ctx, cfg, Deps{
		Views:     testViews(),
		Registry:  reg,
		Hub:       hub,
		Refresher: env.refresher,
		Upstream:  env.upstream,
		Store:     st,
		Notifier:  env.notifier,
		Log:       zap.NewNop().Sugar(),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// listBody is the decoded form of a list response.
type listBody struct {
	View string `json:"view"`
	Page struct {
		Items      []map[string]any `json:"items"`
		PageNumber int              `json:"page_number"`
		PageSize   int              `json:"page_size"`
		TotalItems int              `json:"total_items"`
		TotalPages int              `json:"total_pages"`
	} `json:"page"`
	Search  string                `json:"search"`
	Filters []listing.ExactFilter `json:"filters"`
	Sort    *listing.SortSpec     `json:"sort"`
	Loaded  bool                  `json:"loaded"`
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listBody {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func itemIDs(b listBody) []string {
	ids := make([]string, len(b.Page.Items))
	for i, item := range b.Page.Items {
		ids[i], _ = item["id"].(string)
	}
	return ids
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decodeJSON(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
