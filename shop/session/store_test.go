package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoCreatesIdleSession(t *testing.T) {
	s := NewStore()

	err := s.Do(7, func(sess *Session) error {
		assert.Equal(t, int64(7), sess.ActorID)
		assert.Equal(t, RoleCustomer, sess.Role)
		assert.Equal(t, StateIdle, sess.State)
		return nil
	})
	require.NoError(t, err)
}

func TestDoPersistsMutations(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Do(7, func(sess *Session) error {
		sess.State = StateMainMenu
		sess.Order().Location = "41.3, 69.2"
		return nil
	}))

	got := s.Get(7)
	assert.Equal(t, StateMainMenu, got.State)
	assert.Equal(t, "41.3, 69.2", got.Data.Order.Location)
}

func TestClearResetsToIdle(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Do(7, func(sess *Session) error {
		sess.State = StateShowingCart
		sess.Data.Cart = sess.Data.Cart.Add(1, "Tea", 5000, 1)
		return nil
	}))

	s.Clear(7)

	got := s.Get(7)
	assert.Equal(t, StateIdle, got.State)
	assert.True(t, got.Data.Cart.Empty())
	assert.Nil(t, got.Data.Order)
}

// Concurrent increments through Do on the same actor must not lose
// updates; different actors must not contend for correctness.
func TestDoSerializesPerActor(t *testing.T) {
	s := NewStore()
	const workers = 8
	const rounds = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		actorID := int64(w % 2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_ = s.Do(actorID, func(sess *Session) error {
					sess.Order().Quantity++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	total := s.Get(0).Data.Order.Quantity + s.Get(1).Data.Order.Quantity
	assert.Equal(t, workers*rounds, total)
}

func TestResetKeepsRole(t *testing.T) {
	s := Session{Role: RoleAdmin, State: StateAdminMenu}
	s.Data.Admin = &AdminDraft{Page: 3}

	s.Reset()

	assert.Equal(t, RoleAdmin, s.Role)
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Data.Admin)
}
