package rabbitmq_adapter

import (
	"testing"

	"favorites-sync/internal/core/port"

	"github.com/stretchr/testify/assert"
)

func TestFields_Pairs(t *testing.T) {
	got := fields([]interface{}{"exchange", "favorites.events", 7, "seven", "dangling"})

	assert.Equal(t, port.Fields{
		"exchange": "favorites.events",
		"7":        "seven",
		"!BADKEY":  "dangling",
	}, got)
	assert.Nil(t, fields(nil))
}
