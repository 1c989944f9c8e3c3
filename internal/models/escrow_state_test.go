package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hanythrift/internal/models"
)

func TestEscrowState_HappyPath(t *testing.T) {
	assert.True(t, models.StateCreated.CanTransition(models.StateDepositHeld))
	assert.True(t, models.StateDepositHeld.CanTransition(models.StateShipped))
	assert.True(t, models.StateShipped.CanTransition(models.StateDelivered))
	assert.True(t, models.StateDelivered.CanTransition(models.StateConfirmed))
	assert.True(t, models.StateConfirmed.CanTransition(models.StateReleased))
}

func TestEscrowState_DisputePath(t *testing.T) {
	assert.True(t, models.StateDelivered.CanTransition(models.StateDisputed))
	assert.True(t, models.StateDisputed.CanTransition(models.StateReleased))
	assert.True(t, models.StateDisputed.CanTransition(models.StateRefunded))
}

func TestEscrowState_NoShortcutsToReleased(t *testing.T) {
	// Funds can never be released without a confirmation or resolved dispute.
	assert.False(t, models.StateCreated.CanTransition(models.StateReleased))
	assert.False(t, models.StateDepositHeld.CanTransition(models.StateReleased))
	assert.False(t, models.StateShipped.CanTransition(models.StateReleased))
	assert.False(t, models.StateDelivered.CanTransition(models.StateReleased))
}

func TestEscrowState_TerminalStates(t *testing.T) {
	assert.True(t, models.StateReleased.IsTerminal())
	assert.True(t, models.StateRefunded.IsTerminal())
	assert.False(t, models.StateReleased.CanTransition(models.StateRefunded))
	assert.False(t, models.StateRefunded.CanTransition(models.StateReleased))

	for _, s := range []models.EscrowState{
		models.StateCreated, models.StateDepositHeld, models.StateShipped,
		models.StateDelivered, models.StateConfirmed, models.StateDisputed,
	} {
		assert.False(t, s.IsTerminal(), "state %s should not be terminal", s)
	}
}

func TestEscrowState_NoBackwardTransitions(t *testing.T) {
	assert.False(t, models.StateShipped.CanTransition(models.StateDepositHeld))
	assert.False(t, models.StateDelivered.CanTransition(models.StateShipped))
	assert.False(t, models.StateConfirmed.CanTransition(models.StateDelivered))
	assert.False(t, models.StateConfirmed.CanTransition(models.StateDisputed))
}
