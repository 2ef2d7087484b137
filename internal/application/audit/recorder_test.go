package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memorySink struct {
	entries []audit.Entry
	err     error
}

func (s *memorySink) Append(_ context.Context, entry audit.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memorySink) List(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	out := make([]audit.Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter.Entity != "" && e.Entity != filter.Entity {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func TestRecorder_Record(t *testing.T) {
	t.Run("appends entry with actor from context", func(t *testing.T) {
		sink := &memorySink{}
		rec := NewRecorder(sink, zap.NewNop())
		id := uuid.New()

		ctx := audit.WithActor(context.Background(), "barista1")
		rec.Created(ctx, audit.EntitySale, id, map[string]any{"total": "3000"})

		require.Len(t, sink.entries, 1)
		e := sink.entries[0]
		assert.Equal(t, "barista1", e.Actor)
		assert.Equal(t, audit.EntitySale, e.Entity)
		assert.Equal(t, id, *e.EntityID)
		assert.Equal(t, audit.ActionCreate, e.Action)
		assert.Equal(t, "3000", e.Diff["total"])
		assert.NotEqual(t, uuid.Nil, e.ID)
	})

	t.Run("defaults actor to local", func(t *testing.T) {
		sink := &memorySink{}
		rec := NewRecorder(sink, nil)

		rec.Deleted(context.Background(), audit.EntityLot, uuid.New(), nil)

		require.Len(t, sink.entries, 1)
		assert.Equal(t, audit.SystemActor, sink.entries[0].Actor)
	})

	t.Run("sink failure is logged and swallowed", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		sink := &memorySink{err: errors.New("disk full")}
		rec := NewRecorder(sink, zap.New(core))

		assert.NotPanics(t, func() {
			rec.Updated(context.Background(), audit.EntityProduct, uuid.New(), Change("sale_price", "1000", "1200"))
		})

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "Failed to append audit entry", entry.Message)
		assert.Equal(t, audit.EntityProduct, entry.ContextMap()["entity"])
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		var rec *Recorder
		assert.NotPanics(t, func() {
			rec.Created(context.Background(), audit.EntitySale, uuid.New(), nil)
		})
	})
}

func TestService_List(t *testing.T) {
	sink := &memorySink{}
	rec := NewRecorder(sink, nil)
	ctx := context.Background()
	rec.Created(ctx, audit.EntitySale, uuid.New(), nil)
	rec.Created(ctx, audit.EntityLot, uuid.New(), nil)
	rec.Created(ctx, audit.EntitySale, uuid.New(), nil)

	svc := NewService(sink)

	t.Run("filters by entity newest first", func(t *testing.T) {
		out, err := svc.List(ctx, ListFilter{Entity: audit.EntitySale})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, *sink.entries[2].EntityID, *out[0].EntityID)
	})

	t.Run("applies limit", func(t *testing.T) {
		out, err := svc.List(ctx, ListFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})
}
