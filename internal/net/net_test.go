package net

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/dorfsim/server/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{packet.C_HELLO, 'h', 'i', 0}))
	assert.Equal(t, []byte{6, 0}, buf.Bytes()[:2], "length includes the header")

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{packet.C_HELLO, 'h', 'i', 0}, got)
}

func TestFrameErrors(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{2, 0}))
	assert.Error(t, err, "empty payload")
	_, err = ReadFrame(bytes.NewReader([]byte{9, 0, 1}))
	assert.Error(t, err, "truncated payload")
	assert.Error(t, WriteFrame(&bytes.Buffer{}, nil))
	assert.Error(t, WriteFrame(&bytes.Buffer{}, make([]byte, MaxPayload+1)))
}

func TestSessionQueues(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	sess := NewSession(server, 1, 4, 4, 0, zap.NewNop())
	sess.Start()
	defer sess.Close()
	assert.Equal(t, packet.StateObserver, sess.State())

	go WriteFrame(client, []byte{packet.C_HELLO, 0})
	select {
	case data := <-sess.InQueue:
		assert.Equal(t, []byte{packet.C_HELLO, 0}, data)
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound packet")
	}

	sess.Send([]byte{packet.S_RESULT, 1})
	sess.FlushOutput()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	out, err := ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, []byte{packet.S_RESULT, 1}, out)
}

func TestSessionSlowConsumerIsDropped(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	// Not started: nothing drains OutQueue.
	sess := NewSession(server, 2, 1, 1, 0, zap.NewNop())
	sess.Send([]byte{packet.S_SNAPSHOT})
	sess.Send([]byte{packet.S_SNAPSHOT})
	sess.FlushOutput()
	assert.True(t, sess.IsClosed())
	assert.Equal(t, packet.StateDisconnecting, sess.State())

	sess.Send([]byte{packet.S_SNAPSHOT})
	assert.Empty(t, sess.outBuf, "closed sessions buffer nothing")
}

func TestSessionIdleReadTimesOut(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	sess := NewSession(server, 3, 4, 4, 0, zap.NewNop())
	sess.ReadTimeout = 50 * time.Millisecond
	sess.Start()
	defer sess.Close()

	assert.Eventually(t, sess.IsClosed, 2*time.Second, 10*time.Millisecond)
}

func TestServerAccepts(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", 4, 4, 10, time.Second, time.Minute, zap.NewNop())
	require.NoError(t, err)
	go srv.AcceptLoop()
	defer srv.Shutdown()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case sess := <-srv.NewSessions():
		assert.Equal(t, uint64(1), sess.ID)
		st := NewSessionStore()
		st.Add(sess)
		assert.Equal(t, 1, st.Count())
		assert.Same(t, sess, st.Get(1))
		sess.Close()
		st.Remove(1)
		assert.Zero(t, st.Count())
	case <-time.After(2 * time.Second):
		t.Fatal("no session")
	}
}
