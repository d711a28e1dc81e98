package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to BookingStatus
	}{
		{StatusDraft, StatusPending},
		{StatusDraft, StatusConfirmed},
		{StatusDraft, StatusCancelled},
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusPerformed},
		{StatusConfirmed, StatusCancelled},
		{StatusPerformed, StatusCompleted},
		{StatusPerformed, StatusCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	forbidden := []struct {
		from, to BookingStatus
	}{
		{StatusDraft, StatusPerformed},
		{StatusPending, StatusPerformed},
		{StatusConfirmed, StatusCompleted},
		{StatusPerformed, StatusConfirmed},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusConfirmed},
		{StatusCancelled, StatusDraft},
	}
	for _, tr := range forbidden {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestBookingStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.False(t, StatusPerformed.IsTerminal())
}

func TestAgent_Supports(t *testing.T) {
	agent := &Agent{ServiceIDs: []string{"fotografia_imovel", "video_imovel"}}

	assert.True(t, agent.Supports("fotografia_imovel"))
	assert.False(t, agent.Supports("drone_imovel"))

	assert.True(t, agent.SupportsAll([]string{"fotografia_imovel", "video_imovel"}))
	assert.False(t, agent.SupportsAll([]string{"fotografia_imovel", "drone_imovel"}))
	assert.True(t, agent.SupportsAll(nil))
}
