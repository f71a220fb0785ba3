package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := NotFound("order not found")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindForbidden))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", Conflict("stale version"))
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestInsufficientStockMessage(t *testing.T) {
	err := InsufficientStock("Ceramic Mug", 3, 1)
	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.Contains(t, err.Error(), "Ceramic Mug")
	assert.Contains(t, err.Error(), "requested 3")
	assert.Contains(t, err.Error(), "available 1")
}

func TestGatewayTransience(t *testing.T) {
	transient := Gateway(errors.New("timeout"), true, "gateway unreachable")
	assert.True(t, transient.Transient)

	permanent := Gateway(nil, false, "rejected")
	assert.False(t, permanent.Transient)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable(cause, "store unavailable")
	assert.ErrorIs(t, err, cause)
}
