package physics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGravityAdapter(t *testing.T) {
	t.Run("Vector mirrors x and scales", func(t *testing.T) {
		g := NewGravityAdapter(nil, 0)
		require.Equal(t, DefaultGravityScale, g.Scale())
		require.Equal(t, V(-3, 6), g.Vector(1, 2))
		require.Equal(t, V(0, 0), g.Vector(0, 0))
		require.Equal(t, V(1.5, -3), g.Vector(-0.5, -1))
	})

	t.Run("Update forwards to engine", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := NewMockEngine(ctrl)
		engine.EXPECT().SetGravity(V(-6, 9.81*2)).Return(nil)

		g := NewGravityAdapter(engine, 2)
		require.NoError(t, g.Update(3, 9.81))
	})

	t.Run("Update surfaces engine failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := NewMockEngine(ctrl)
		boom := errors.New("boom")
		engine.EXPECT().SetGravity(gomock.Any()).Return(boom)

		g := NewGravityAdapter(engine, 3)
		require.ErrorIs(t, g.Update(1, 1), boom)
	})
}

func TestVec2(t *testing.T) {
	a, b := V(0, 0), V(1, 1)
	require.Equal(t, V(0.5, 0.5), a.Mid(b))
	require.Equal(t, V(0.25, 0.25), a.Lerp(b, 0.25))
	require.InDelta(t, 1.4142, Distance(a, b), 1e-4)
	require.Equal(t, V(2, 2), b.Add(b))
	require.Equal(t, V(-1, -1), a.Sub(b))
	require.True(t, a.IsZero())
	require.Equal(t, "circle", ShapeCircle.String())
}
