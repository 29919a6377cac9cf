package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
)

func TestBus(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		b := NewBus(0, nil)
		defer b.Close()

		assert.Equal(t, shared.DefaultNotificationTTL, b.ttl)

		id := b.Push(models.Notification{Message: "hello"})
		list := b.List()
		require.Len(t, list, 1)
		assert.Equal(t, id, list[0].ID)
		assert.Equal(t, models.KindInfo, list[0].Kind)
		assert.Equal(t, "Notice", list[0].Title)
		assert.WithinDuration(t, time.Now().Add(shared.DefaultNotificationTTL), list[0].ExpiresAt, time.Second)
	})

	t.Run("Most Recent First", func(t *testing.T) {
		b := NewBus(time.Minute, nil)
		defer b.Close()

		first := b.Info("One", "first")
		second := b.Success("Two", "second")
		third := b.Error("Three", "third")

		list := b.List()
		require.Len(t, list, 3)
		assert.Equal(t, []string{third, second, first}, []string{list[0].ID, list[1].ID, list[2].ID})
		assert.Equal(t, models.KindError, list[0].Kind)
	})

	t.Run("Unique IDs And Duplicates Allowed", func(t *testing.T) {
		b := NewBus(time.Minute, nil)
		defer b.Close()

		seen := make(map[string]bool)
		for range 100 {
			id := b.Info("Same", "same")
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
		assert.Len(t, b.List(), 100)
	})

	t.Run("Expires After TTL", func(t *testing.T) {
		b := NewBus(20*time.Millisecond, nil)
		defer b.Close()

		b.Info("Short", "gone soon")
		require.Len(t, b.List(), 1)

		assert.Eventually(t, func() bool { return len(b.List()) == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("Per Notification TTL", func(t *testing.T) {
		b := NewBus(time.Minute, nil)
		defer b.Close()

		keep := b.Info("Long", "stays")
		b.Push(models.Notification{Message: "short", TTL: 10 * time.Millisecond})

		assert.Eventually(t, func() bool { return len(b.List()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, keep, b.List()[0].ID)
	})

	t.Run("Remove Is Idempotent", func(t *testing.T) {
		b := NewBus(time.Minute, nil)
		defer b.Close()

		id := b.Info("A", "a")
		b.Remove(id)
		b.Remove(id)
		b.Remove("does-not-exist")

		assert.Empty(t, b.List())
	})

	t.Run("Subscribe", func(t *testing.T) {
		b := NewBus(time.Minute, nil)
		defer b.Close()

		var calls atomic.Int32
		var last atomic.Int32
		unsubscribe := b.Subscribe(func(list []models.Notification) {
			calls.Add(1)
			last.Store(int32(len(list)))
		})

		id := b.Info("A", "a")
		b.Info("B", "b")
		b.Remove(id)
		assert.EqualValues(t, 3, calls.Load())
		assert.EqualValues(t, 1, last.Load())

		unsubscribe()
		b.Info("C", "c")
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("List Is A Snapshot", func(t *testing.T) {
		b := NewBus(time.Minute, nil)
		defer b.Close()

		b.Info("A", "a")
		list := b.List()
		list[0].Title = "mutated"

		assert.Equal(t, "A", b.List()[0].Title)
	})
}
