package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seta-admin-backend/internal/broadcast"
	"seta-admin-backend/internal/listing"
)

func TestRegistry_ReplaceAndGet(t *testing.T) {
	hub := broadcast.NewHub[Event](4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := hub.Subscribe(ctx)

	reg := New(hub)
	_, ok := reg.Get("students")
	assert.False(t, ok)
	assert.Nil(t, reg.Records("students"))

	now := time.Now()
	applied := reg.Replace(Collection{Name: "students", Records: []listing.Record{{"id": "1"}}, FetchedAt: now, Source: SourceFetch})
	require.True(t, applied)

	ev := <-events
	assert.Equal(t, Event{Collection: "students", Count: 1, FetchedAt: now, Source: SourceFetch}, ev)

	got, ok := reg.Get("students")
	require.True(t, ok)
	assert.Len(t, got.Records, 1)

	reg.Replace(Collection{Name: "agreements", FetchedAt: now, Source: SourceFetch})
	assert.Equal(t, []listing.Record{}, reg.Records("agreements"))
	assert.Equal(t, []string{"agreements", "students"}, reg.Names())
}

func TestRegistry_SnapshotDoesNotOverwriteFresherFetch(t *testing.T) {
	reg := New(nil)
	now := time.Now()

	reg.Replace(Collection{Name: "students", Records: []listing.Record{{"id": "fresh"}}, FetchedAt: now, Source: SourceFetch})
	applied := reg.Replace(Collection{Name: "students", Records: []listing.Record{{"id": "old"}}, FetchedAt: now.Add(-time.Hour), Source: SourceSnapshot})
	assert.False(t, applied)
	assert.Equal(t, "fresh", reg.Records("students")[0]["id"])

	applied = reg.Replace(Collection{Name: "students", Records: []listing.Record{{"id": "newer"}}, FetchedAt: now.Add(-time.Minute), Source: SourceFetch})
	assert.True(t, applied, "fetch results always win")
}

func TestRegistry_Lookups(t *testing.T) {
	reg := New(nil)
	reg.Replace(Collection{Name: "host_companies", Records: []listing.Record{{"id": "c1"}}, Source: SourceFetch})

	v := listing.View{
		Name: "placements",
		Relations: []listing.Relation{
			{Name: "company", Collection: "host_companies", LocalKey: "company_id", ForeignKey: "id"},
			{Name: "learner", Collection: "students", LocalKey: "learner_id", ForeignKey: "id"},
		},
	}
	lookups := reg.Lookups(v)
	assert.Len(t, lookups, 1)
	assert.Len(t, lookups["host_companies"], 1)
}

func TestDependents(t *testing.T) {
	views := []listing.View{
		{Name: "students"},
		{Name: "placements", Relations: []listing.Relation{{Collection: "students"}, {Collection: "host_companies"}}},
		{Name: "funding_windows", Relations: []listing.Relation{{Collection: "agreements"}}},
	}
	assert.Equal(t, []string{"students", "placements"}, Dependents(views, "students"))
	assert.Equal(t, []string{"agreements", "funding_windows"}, Dependents(views, "agreements"))
}
