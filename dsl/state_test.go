package dsl

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	chat "github.com/everydev1618/gochat"
)

func TestExecutionStateLocks(t *testing.T) {
	s := NewExecutionState()

	assert.False(t, s.Unlock("phone_stock"), "unlocking an unheld resource is a no-op")
	assert.False(t, s.Lock("phone_stock"))
	assert.True(t, s.Lock("phone_stock"), "second Lock reports the resource was held")
	assert.True(t, s.Unlock("phone_stock"))
	assert.Empty(t, s.Locks)
}

func TestExecutionStateLocksAreAdvisoryAcrossSessions(t *testing.T) {
	a, b := NewExecutionState(), NewExecutionState()

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i, s := range []*ExecutionState{a, b} {
		wg.Add(1)
		go func(i int, s *ExecutionState) {
			defer wg.Done()
			results[i] = s.Lock("phone_stock")
		}(i, s)
	}
	wg.Wait()

	assert.Equal(t, []bool{false, false}, results, "neither session sees the other's lock")
	assert.True(t, a.Locks["phone_stock"])
	assert.True(t, b.Locks["phone_stock"])
}

func TestExecutionStateTranscript(t *testing.T) {
	s := NewExecutionState()
	_, ok := s.Last()
	assert.False(t, ok)

	for _, text := range []string{"1", "2", "3", "4"} {
		s.Append(chat.RoleUser, text)
	}
	s.Append(chat.RoleAssistant, "5")

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, chat.RoleAssistant, last.Role)

	recent := s.Recent(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, "4", recent[0].Text)
	assert.Equal(t, "5", recent[1].Text)

	recent[0].Text = "changed"
	assert.Equal(t, "4", s.Transcript[3].Text, "Recent returns a copy")

	assert.Len(t, s.Recent(0), 5)
	assert.Len(t, s.Recent(10), 5)
}

func TestExecutionStateSnapshot(t *testing.T) {
	s := NewExecutionState()
	s.Variables["stock"] = int64(3)

	snap := s.Snapshot()
	snap["stock"] = int64(0)
	assert.Equal(t, int64(3), s.Variables["stock"])
}
