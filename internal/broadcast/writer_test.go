package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientWriter_DeliversQueuedFrames(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	t.Cleanup(func() { cw.stop() })

	cw.sendChannel <- []byte("hello")
	assert.Equal(t, "hello", readText(t, client))
}

func TestClientWriter_TerminateWritesNotice(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	cw.terminate([]byte("notice"))

	assert.Equal(t, "notice", readText(t, client))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)
}

func TestClientWriter_TerminateFlushesQueuedFrames(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	close(cw.doneChannel)
	cw.wg.Wait()

	// The writer has exited, so these stay buffered until terminate.
	cw.sendChannel <- []byte("first")
	cw.sendChannel <- []byte("second")

	require.True(t, cw.flush())

	assert.Equal(t, "first", readText(t, client))
	assert.Equal(t, "second", readText(t, client))
}

func TestClientWriter_StopIdempotent(t *testing.T) {
	server, _ := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())

	cw.stop()
	cw.stop()
	cw.terminate([]byte("ignored"))
	cw.stopGraceful("ignored")
}

func TestClientWriter_ConcurrentStop(t *testing.T) {
	server, _ := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cw.stop()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent stop calls deadlocked")
	}
}

func TestClientWriter_PingOnInterval(t *testing.T) {
	server, client := newTestConnPair(t)

	pinged := make(chan struct{}, 1)
	client.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})

	fakeClock := clockwork.NewFakeClockAt(time.Now())
	cw := newClientWriter(server, fakeClock)
	t.Cleanup(func() { cw.stop() })

	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	require.NoError(t, fakeClock.BlockUntilContext(t.Context(), 1))
	fakeClock.Advance(pingInterval)

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping received")
	}
}
