package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

func kind(t *testing.T, name string) kinds.Kind {
	t.Helper()
	k, ok := kinds.Default().Lookup(name)
	require.True(t, ok)
	return k
}

func TestRegistry(t *testing.T) {
	cherry := kind(t, kinds.Cherry)
	grape := kind(t, kinds.Grape)

	t.Run("Create and Get", func(t *testing.T) {
		r := New()
		id := r.Create(cherry, physics.V(1, 2))
		require.Equal(t, models.EntityID("fruit-0"), id)

		e, err := r.Get(id)
		require.NoError(t, err)
		require.Equal(t, cherry, e.Kind)
		require.Equal(t, physics.V(1, 2), e.Position)
		require.True(t, r.Contains(id))
	})

	t.Run("Ids are never reused", func(t *testing.T) {
		r := New()
		seen := make(map[models.EntityID]bool)
		for i := 0; i < 100; i++ {
			id := r.Create(cherry, physics.Vec2{})
			require.False(t, seen[id], "id %s reused", id)
			seen[id] = true
			if i%2 == 0 {
				require.NoError(t, r.Remove(id))
			}
		}
		require.Equal(t, uint64(100), r.Issued())
		require.Equal(t, 50, r.Len())
	})

	t.Run("Remove missing id is NotFound without change", func(t *testing.T) {
		r := New()
		id := r.Create(cherry, physics.Vec2{})
		before := r.All()

		require.ErrorIs(t, r.Remove("fruit-42"), ErrNotFound)
		require.Equal(t, before, r.All())

		require.NoError(t, r.Remove(id))
		require.ErrorIs(t, r.Remove(id), ErrNotFound)
		_, err := r.Get(id)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("All is an ordered snapshot", func(t *testing.T) {
		r := New()
		var ids []models.EntityID
		for i := 0; i < 12; i++ {
			ids = append(ids, r.Create(grape, physics.V(float64(i), 0)))
		}
		snap := r.All()
		require.Len(t, snap, 12)
		for i, e := range snap {
			require.Equal(t, ids[i], e.ID)
		}

		require.NoError(t, r.Remove(ids[3]))
		require.Len(t, snap, 12, "earlier snapshot is not a live view")
		require.Len(t, r.All(), 11)
	})

	t.Run("Move", func(t *testing.T) {
		r := New()
		id := r.Create(cherry, physics.Vec2{})
		require.NoError(t, r.Move(id, physics.V(5, 6)))
		e, _ := r.Get(id)
		require.Equal(t, physics.V(5, 6), e.Position)
		require.ErrorIs(t, r.Move("fruit-9", physics.Vec2{}), ErrNotFound)
	})

	t.Run("Restore", func(t *testing.T) {
		r := New()
		id := r.Create(cherry, physics.V(3, 3))
		e, _ := r.Get(id)

		require.ErrorIs(t, r.Restore(e), ErrIDLive)
		require.NoError(t, r.Remove(id))
		require.NoError(t, r.Restore(e))
		got, err := r.Get(id)
		require.NoError(t, err)
		require.Equal(t, e, got)

		require.ErrorIs(t, r.Restore(models.Entity{ID: "fruit-99"}), ErrIDNotIssued)
		require.ErrorIs(t, r.Restore(models.Entity{ID: "melon-0"}), ErrIDNotIssued)

		for _, alias := range []models.EntityID{"fruit-00", "fruit-+0", "fruit-0 ", "fruit-"} {
			require.ErrorIs(t, r.Restore(models.Entity{ID: alias, Kind: cherry}), ErrIDNotIssued, alias)
		}
		require.Equal(t, []models.EntityID{id}, r.IDs())

		next := r.Create(cherry, physics.Vec2{})
		require.Equal(t, models.EntityID("fruit-1"), next)
	})

	t.Run("Custom prefix", func(t *testing.T) {
		r := NewWithPrefix("token")
		require.Equal(t, models.EntityID("token-0"), r.Create(cherry, physics.Vec2{}))
		require.Equal(t, []models.EntityID{"token-0"}, r.IDs())
	})
}
