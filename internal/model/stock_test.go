package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedMovementQuantity(t *testing.T) {
	cases := []struct {
		movType string
		qty     int
		signed  int
	}{
		{MovementSale, 5, -5},
		{MovementDamage, 3, -3},
		{MovementPurchase, 10, 10},
		{MovementReturn, 2, 2},
		{MovementAdjustment, -7, -7},
		{MovementAdjustment, 7, 7},
	}
	for _, c := range cases {
		got, err := SignedMovementQuantity(c.movType, c.qty)
		require.NoError(t, err, "%s %d", c.movType, c.qty)
		assert.Equal(t, c.signed, got, "%s %d", c.movType, c.qty)
	}
}

func TestSignedMovementQuantityRejectsBadInput(t *testing.T) {
	// magnitude types must be positive
	for _, movType := range []string{MovementSale, MovementDamage, MovementPurchase, MovementReturn} {
		_, err := SignedMovementQuantity(movType, 0)
		assert.Error(t, err, movType)
		_, err = SignedMovementQuantity(movType, -1)
		assert.Error(t, err, movType)
	}

	_, err := SignedMovementQuantity(MovementAdjustment, 0)
	assert.Error(t, err)

	_, err = SignedMovementQuantity("TELEPORT", 1)
	assert.Error(t, err)
}
