package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotentHandler(t *testing.T) {
	cfg := shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}

	t.Run("handles each event once", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := newTestHandler("InvoiceConfirmed")
		h := NewIdempotentHandler("archive", inner, store, nil, cfg)

		event := newTestEvent("InvoiceConfirmed")
		require.NoError(t, h.Handle(context.Background(), event))
		require.NoError(t, h.Handle(context.Background(), event))

		assert.Equal(t, 1, inner.count())
		assert.Equal(t, IdempotencyStats{EventsProcessed: 1, EventsDuplicate: 1}, h.Stats())
		assert.Equal(t, []string{"InvoiceConfirmed"}, h.EventTypes())
	})

	t.Run("handlers with different names both run", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		a := newTestHandler("InvoiceConfirmed")
		b := newTestHandler("InvoiceConfirmed")
		event := newTestEvent("InvoiceConfirmed")

		require.NoError(t, NewIdempotentHandler("archive", a, store, nil, cfg).Handle(context.Background(), event))
		require.NoError(t, NewIdempotentHandler("metrics", b, store, nil, cfg).Handle(context.Background(), event))

		assert.Equal(t, 1, a.count())
		assert.Equal(t, 1, b.count())
	})

	t.Run("failure releases the key", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := newTestHandler("InvoiceConfirmed")
		inner.err = errors.New("bucket unavailable")
		h := NewIdempotentHandler("archive", inner, store, nil, cfg)
		event := newTestEvent("InvoiceConfirmed")

		assert.Error(t, h.Handle(context.Background(), event))

		inner.err = nil
		require.NoError(t, h.Handle(context.Background(), event))
		assert.Equal(t, 2, inner.count())
		assert.Equal(t, int64(1), h.Stats().EventsFailed)
	})

	t.Run("disabled passes through", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := newTestHandler("InvoiceConfirmed")
		h := NewIdempotentHandler("archive", inner, store, nil, shared.IdempotencyConfig{})
		event := newTestEvent("InvoiceConfirmed")

		require.NoError(t, h.Handle(context.Background(), event))
		require.NoError(t, h.Handle(context.Background(), event))
		assert.Equal(t, 2, inner.count())
	})
}
