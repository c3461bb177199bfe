package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_FollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	assert.NoError(t, sm.Context().Err())
	cancel()
	<-sm.Context().Done()
	assert.ErrorIs(t, sm.Context().Err(), context.Canceled)
}

func TestSignalManager_Reset(t *testing.T) {
	sm := NewSignalManager(context.Background())
	first := sm.Context()
	sm.Reset()
	defer sm.Stop()

	assert.Error(t, first.Err(), "the previous context is released")
	assert.NoError(t, sm.Context().Err())
}
