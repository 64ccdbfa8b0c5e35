package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProductDesk/internal/catalog"
	"ProductDesk/internal/client"
	"ProductDesk/internal/kv"
	"ProductDesk/internal/product"
)

// readOnlyKV rejects every write.
type readOnlyKV struct{ *kv.MemStore }

func (readOnlyKV) Set(context.Context, string, string) error { return errors.New("read-only") }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newServerOn(t, kv.NewMemStore())
}

func newServerOn(t *testing.T, backend kv.Store) *httptest.Server {
	t.Helper()

	store := catalog.Open(context.Background(), catalog.StoreDeps{KV: backend, Log: zap.NewNop()})
	h := catalog.NewHandler(&catalog.Server{Store: store}, catalog.HTTPDeps{Log: zap.NewNop(), Service: "productdesk"})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := client.New(newServer(t).URL + "/")

	require.NoError(t, c.Ready(ctx))

	created, res, err := c.Create(ctx, product.Input{Title: "Pen", Price: "2", Tax: "0.4", Category: "Office"}, 2)
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	require.Len(t, created, 2)
	assert.Equal(t, int64(2), created[1].ID)
	assert.InDelta(t, 2.4, created[0].Total, 1e-9)

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Pen", got.Title)

	updated, _, err := c.Update(ctx, 1, product.Input{Title: "Lamp", Price: "9", Category: "Home"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.ID)

	_, err = c.Get(ctx, 1)
	assert.ErrorIs(t, err, client.ErrNotFound)

	_, err = c.SetSearchMode(ctx, "category")
	require.NoError(t, err)
	mode, err := c.SearchMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "category", mode)

	list, err := c.List(ctx, "hom")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lamp", list[0].Title)

	remaining, _, err := c.Delete(ctx, 2)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(3), remaining[0].ID)

	total, err := c.Total(ctx, 0, 1, 1, 0)
	require.NoError(t, err)
	assert.False(t, total.IsValid)
	assert.Equal(t, 2.0, total.Total)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	c := client.New(newServer(t).URL)

	_, err := c.SetSearchMode(ctx, "price")
	assert.ErrorIs(t, err, client.ErrBadStatus)

	down := client.New("http://127.0.0.1:1")
	err = down.Ready(ctx)
	assert.True(t, errors.Is(err, client.ErrUnavailable), "err=%v", err)
}

func TestClient_ReportsUnsavedChanges(t *testing.T) {
	ctx := context.Background()
	c := client.New(newServerOn(t, readOnlyKV{kv.NewMemStore()}).URL)

	created, res, err := c.Create(ctx, product.Input{Title: "Pen", Price: "2"}, 1)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.False(t, res.Persisted)

	res, err = c.SetSearchMode(ctx, "category")
	require.NoError(t, err)
	assert.False(t, res.Persisted)
}
