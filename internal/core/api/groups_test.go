package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/flowkeeper/internal/types"
)

func TestResolveGroupNames(t *testing.T) {
	t.Run("default scope is always the sentinel", func(t *testing.T) {
		for _, raw := range []string{"", "g1,g2", string(types.DefaultGroup), "9-invalid"} {
			got, err := ResolveGroupNames(types.OpDefault, raw, true, 10)
			require.NoError(t, err, raw)
			assert.Equal(t, []types.GroupName{types.DefaultGroup}, got.Sorted())
		}
	})

	t.Run("group scope rejects the sentinel", func(t *testing.T) {
		_, err := ResolveGroupNames(types.OpGroup, "g1, "+string(types.DefaultGroup), true, 10)
		require.Error(t, err)
		assert.Equal(t, types.KindInvalidArgument, types.KindOf(err))
	})

	t.Run("group scope splits names", func(t *testing.T) {
		got, err := ResolveGroupNames(types.OpGroup, "g2, g1 ,g1", true, 10)
		require.NoError(t, err)
		assert.Equal(t, []types.GroupName{"g1", "g2"}, got.Sorted())
	})

	t.Run("group scope rejects single letter names", func(t *testing.T) {
		_, err := ResolveGroupNames(types.OpGroup, "g1,b", true, 10)
		require.Error(t, err)
		assert.Equal(t, types.KindInvalidArgument, types.KindOf(err))
	})

	t.Run("empty allowed when not required", func(t *testing.T) {
		got, err := ResolveGroupNames(types.OpGroup, " ", false, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty rejected when required", func(t *testing.T) {
		_, err := ResolveGroupNames(types.OpGroup, "", true, 10)
		assert.Equal(t, types.KindInvalidArgument, types.KindOf(err))
	})

	t.Run("batch limit", func(t *testing.T) {
		_, err := ResolveGroupNames(types.OpGroup, "a1,a2,a3", true, 2)
		assert.Equal(t, types.KindInvalidArgument, types.KindOf(err))
	})
}
