package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQueryConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultQueryConfig()

		assert.Equal(t, 10, config.TopK, "Default TopK should be 10")
		assert.Equal(t, 2, config.MaxHops, "Default MaxHops should be 2")
		assert.Nil(t, config.Predicates, "Default Predicates should be nil (all predicates)")
		assert.True(t, config.FollowBidirectional, "Default FollowBidirectional should be true")
		assert.Equal(t, 100, config.MaxResults)
	})

	t.Run("Can set Predicates filter", func(t *testing.T) {
		config := DefaultQueryConfig()

		config.Predicates = []string{"capital", "located"}

		require.Len(t, config.Predicates, 2)
		assert.Equal(t, "capital", config.Predicates[0])
	})
}

func TestQueryConfig_AllowsPredicate(t *testing.T) {
	t.Run("Allows everything without filter", func(t *testing.T) {
		config := DefaultQueryConfig()
		assert.True(t, config.AllowsPredicate("anything"))
	})

	t.Run("Allows only listed predicates with filter", func(t *testing.T) {
		config := DefaultQueryConfig()
		config.Predicates = []string{"capital"}

		assert.True(t, config.AllowsPredicate("capital"))
		assert.False(t, config.AllowsPredicate("born"))
	})
}
