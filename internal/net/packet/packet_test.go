package packet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriterReaderFields(t *testing.T) {
	w := NewWriterWithOpcode(C_SPAWN_MOVER)
	w.WriteC(7)
	w.WriteH(0xBEEF)
	w.WriteD(-42)
	w.WriteQ(1 << 40)
	w.WriteF(2.5)
	w.WriteS("héllo")
	w.WriteBool(true)

	r := NewReader(w.Bytes())
	assert.Equal(t, C_SPAWN_MOVER, r.Opcode())
	assert.Equal(t, byte(7), r.ReadC())
	assert.Equal(t, uint16(0xBEEF), r.ReadH())
	assert.Equal(t, int32(-42), r.ReadD())
	assert.Equal(t, uint64(1<<40), r.ReadQ())
	assert.Equal(t, 2.5, r.ReadF())
	assert.Equal(t, "héllo", r.ReadS())
	assert.Equal(t, byte(1), r.ReadC())
	assert.Equal(t, 0, r.Remaining())
	assert.NoError(t, r.Err())
}

func TestReaderShort(t *testing.T) {
	r := NewReader([]byte{C_SET_GOAL, 1, 2, 3})
	assert.Zero(t, r.ReadQ())
	assert.ErrorIs(t, r.Err(), ErrShortPacket)
	assert.Zero(t, r.ReadC(), "stays at the end")

	r = NewReader([]byte{C_HELLO, 'a', 'b'})
	assert.Equal(t, "ab", r.ReadS())
	assert.ErrorIs(t, r.Err(), ErrShortPacket, "missing terminator")
}

type fakeSession struct{ calls int }

func TestRegistryStateGate(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(C_HELLO, Observers, func(sess any, r *Reader) {
		sess.(*fakeSession).calls++
	})
	reg.Register(C_SET_GOAL, Controllers, func(sess any, r *Reader) {
		sess.(*fakeSession).calls++
	})

	s := &fakeSession{}
	require.NoError(t, reg.Dispatch(s, StateObserver, []byte{C_HELLO, 0}))
	assert.Error(t, reg.Dispatch(s, StateObserver, []byte{C_SET_GOAL}))
	require.NoError(t, reg.Dispatch(s, StateController, []byte{C_SET_GOAL}))
	assert.Equal(t, 2, s.calls)

	assert.NoError(t, reg.Dispatch(s, StateController, []byte{0x7F}), "unknown opcodes are ignored")
	assert.Error(t, reg.Dispatch(s, StateController, nil))
}

func TestRegistryRecoversPanics(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(C_REMOVE_ENTITY, Controllers, func(any, *Reader) {
		panic(errors.New("bad handler"))
	})
	err := reg.Dispatch(nil, StateController, []byte{C_REMOVE_ENTITY})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}
