// Package registry holds the in-memory copy of every upstream collection.
// It is the only place list views read records from.
package registry

import (
	"slices"
	"sort"
	"sync"
	"time"

	"seta-admin-backend/internal/broadcast"
	"seta-admin-backend/internal/listing"
)

// Source records where a collection's records came from.
type Source string

const (
	SourceFetch    Source = "fetch"
	SourceSnapshot Source = "snapshot"
)

// Collection is one entity collection as last loaded. Records are shared
// with readers and must not be modified.
type Collection struct {
	Name      string
	Records   []listing.Record
	FetchedAt time.Time
	Source    Source
}

// Event announces that a collection was replaced.
type Event struct {
	Collection string    `json:"collection"`
	Count      int       `json:"count"`
	FetchedAt  time.Time `json:"fetched_at"`
	Source     Source    `json:"source"`
}

// Registry is a concurrency-safe map of collections keyed by name.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]Collection
	hub         *broadcast.Hub[Event]
}

// New creates an empty registry publishing replacements on hub (may be nil).
func New(hub *broadcast.Hub[Event]) *Registry {
	return &Registry{
		collections: make(map[string]Collection),
		hub:         hub,
	}
}

// Replace swaps in c wholesale. A snapshot never overwrites a collection
// that has already been fetched more recently; Replace reports whether c was
// applied.
func (r *Registry) Replace(c Collection) bool {
	r.mu.Lock()
	if cur, ok := r.collections[c.Name]; ok && c.Source == SourceSnapshot && !c.FetchedAt.After(cur.FetchedAt) {
		r.mu.Unlock()
		return false
	}
	if c.Records == nil {
		c.Records = []listing.Record{}
	}
	r.collections[c.Name] = c
	r.mu.Unlock()

	if r.hub != nil {
		r.hub.Publish(Event{
			Collection: c.Name,
			Count:      len(c.Records),
			FetchedAt:  c.FetchedAt,
			Source:     c.Source,
		})
	}
	return true
}

// Get returns the collection called name.
func (r *Registry) Get(name string) (Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	return c, ok
}

// Records returns the records of name, or nil when it was never loaded.
func (r *Registry) Records(name string) []listing.Record {
	c, _ := r.Get(name)
	return c.Records
}

// Lookups returns the collections v's relations join against.
func (r *Registry) Lookups(v listing.View) map[string][]listing.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]listing.Record, len(v.Relations))
	for _, rel := range v.Relations {
		if c, ok := r.collections[rel.Collection]; ok {
			out[rel.Collection] = c.Records
		}
	}
	return out
}

// Names lists the loaded collections in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependents returns the names of views that join against collection,
// including collection itself.
func Dependents(views []listing.View, collection string) []string {
	out := []string{collection}
	for _, v := range views {
		for _, rel := range v.Relations {
			if rel.Collection == collection && !slices.Contains(out, v.Name) {
				out = append(out, v.Name)
			}
		}
	}
	return out
}
