package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

func runHub(t *testing.T) (*ConnectionManager, context.CancelFunc) {
	t.Helper()
	cm := NewConnectionManager()
	ctx, cancel := context.WithCancel(context.Background())
	go cm.Run(ctx)
	require.Eventually(t, cm.Running, time.Second, time.Millisecond)
	t.Cleanup(cancel)
	return cm, cancel
}

func receive(t *testing.T, ch <-chan ports.UpdateEvent) ports.UpdateEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return ports.UpdateEvent{}
}

func TestConnectionManager(t *testing.T) {
	t.Run("register and unregister connection", func(t *testing.T) {
		cm, _ := runHub(t)

		conn := NewConnection("page-1")
		require.True(t, cm.RegisterConnection(conn))
		require.Eventually(t, func() bool { return cm.Count() == 1 }, time.Second, time.Millisecond)

		cm.Unregister("page-1")
		require.Eventually(t, func() bool { return cm.Count() == 0 }, time.Second, time.Millisecond)

		_, ok := <-conn.Send
		assert.False(t, ok, "send queue is closed on unregister")
	})

	t.Run("broadcast to connections", func(t *testing.T) {
		cm, _ := runHub(t)

		conns := []*Connection{NewConnection("a"), NewConnection("b"), NewConnection("c")}
		for _, c := range conns {
			require.True(t, cm.RegisterConnection(c))
		}

		cm.Broadcast(ports.UpdateEvent{Type: ports.EventTypeEngineSync, Data: SyncPayload{Reset: true}})

		for _, c := range conns {
			ev := receive(t, c.Send)
			assert.Equal(t, ports.EventTypeEngineSync, ev.Type)
		}
	})

	t.Run("slow connection is dropped", func(t *testing.T) {
		cm, _ := runHub(t)

		slow := &Connection{ID: "slow", Send: make(chan ports.UpdateEvent, 1)}
		require.True(t, cm.RegisterConnection(slow))

		cm.Broadcast(ports.UpdateEvent{Type: "first"})
		cm.Broadcast(ports.UpdateEvent{Type: "second"})

		require.Eventually(t, func() bool { return cm.Count() == 0 }, time.Second, time.Millisecond)
		assert.Equal(t, "first", (<-slow.Send).Type)
		_, ok := <-slow.Send
		assert.False(t, ok)
	})

	t.Run("broadcast before run is dropped", func(t *testing.T) {
		cm := NewConnectionManager()
		for i := 0; i < sendBuffer+10; i++ {
			cm.Broadcast(ports.UpdateEvent{Type: "ignored"})
		}
		assert.False(t, cm.Running())
		cm.Unregister("nobody")
	})

	t.Run("shutdown closes every connection", func(t *testing.T) {
		cm, cancel := runHub(t)

		conn := NewConnection("page")
		require.True(t, cm.RegisterConnection(conn))

		cancel()
		select {
		case <-cm.Done():
		case <-time.After(time.Second):
			t.Fatal("hub did not stop")
		}

		assert.False(t, cm.Running())
		assert.Equal(t, 0, cm.Count())
		_, ok := <-conn.Send
		assert.False(t, ok)

		late := NewConnection("late")
		assert.False(t, cm.RegisterConnection(late))
		_, ok = <-late.Send
		assert.False(t, ok)
	})

	t.Run("runs once", func(t *testing.T) {
		cm, cancel := runHub(t)
		cancel()
		<-cm.Done()

		// a second Run returns immediately instead of closing done twice
		cm.Run(context.Background())
		assert.False(t, cm.Running())
	})
}
