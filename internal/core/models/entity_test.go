package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

func TestEntity_Body(t *testing.T) {
	grape, ok := kinds.Default().Lookup(kinds.Grape)
	require.True(t, ok)

	e := Entity{ID: "fruit-7", Kind: grape, Position: physics.V(10, 20)}
	spec := e.Body()
	require.Equal(t, physics.ShapeCircle, spec.Shape)
	require.False(t, spec.Static)
	require.Equal(t, 48.0, spec.Size)
	require.Equal(t, physics.V(10, 20), spec.Position)
}
