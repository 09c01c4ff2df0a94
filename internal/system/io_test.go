package system

import (
	"context"
	"errors"
	gonet "net"
	"testing"
	"time"

	"github.com/dorfsim/server/internal/core/event"
	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/handler"
	"github.com/dorfsim/server/internal/net"
	"github.com/dorfsim/server/internal/net/packet"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/persist"
	"github.com/dorfsim/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	newCh  chan *net.Session
	deadCh chan uint64
	dead   []uint64
}

func newFakeSource() *fakeSource {
	return &fakeSource{newCh: make(chan *net.Session, 4), deadCh: make(chan uint64, 4)}
}

func (f *fakeSource) NewSessions() <-chan *net.Session { return f.newCh }
func (f *fakeSource) DeadSessions() <-chan uint64      { return f.deadCh }
func (f *fakeSource) NotifyDead(id uint64)             { f.dead = append(f.dead, id) }

func pipeSession(t *testing.T, id uint64) *net.Session {
	t.Helper()
	server, client := gonet.Pipe()
	t.Cleanup(func() { client.Close() })
	sess := net.NewSession(server, id, 8, 8, 0, zap.NewNop())
	t.Cleanup(sess.Close)
	return sess
}

func queued(sess *net.Session) [][]byte {
	var out [][]byte
	for {
		select {
		case data := <-sess.OutQueue:
			out = append(out, data)
		default:
			return out
		}
	}
}

func TestInputSystemDispatches(t *testing.T) {
	ws := world.NewState()
	deps := &handler.Deps{
		Log:   zap.NewNop(),
		World: ws,
		Cache: occupancy.New(geom.IV(0, 0), geom.IV(10, 10)),
		Bus:   event.NewBus(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	handler.RegisterAll(reg, deps)
	store := net.NewSessionStore()
	src := newFakeSource()
	in := NewInputSystem(src, reg, store, deps, 2, zap.NewNop())

	sess := pipeSession(t, 7)
	src.newCh <- sess
	in.Update(0)
	assert.Equal(t, 1, in.SessionCount())
	out := queued(sess)
	require.Len(t, out, 1)
	assert.Equal(t, packet.S_WELCOME, out[0][0])

	sess.SetState(packet.StateController)
	for i := 0; i < 3; i++ {
		w := packet.NewWriterWithOpcode(packet.C_PLACE_OBSTACLE)
		w.WriteD(int32(i))
		w.WriteD(0)
		w.WriteD(1)
		w.WriteD(1)
		sess.InQueue <- w.Bytes()
	}
	in.Update(0)
	assert.Equal(t, 2, ws.Count(world.KindObstacle), "at most maxPerTick packets per tick")
	assert.Len(t, queued(sess), 2)
	in.Update(0)
	assert.Equal(t, 3, ws.Count(world.KindObstacle))

	sess.Close()
	in.Update(0)
	assert.Zero(t, in.SessionCount())
	assert.Equal(t, []uint64{7}, src.dead)
}

func TestOutputSystemBroadcastsSnapshots(t *testing.T) {
	ws := world.NewState()
	ws.SpawnObstacle(geom.V(1, 1), geom.IV(1, 1))
	store := net.NewSessionStore()
	sess := pipeSession(t, 1)
	store.Add(sess)
	out := NewOutputSystem(ws, store, 3, zap.NewNop())

	out.Update(0)
	out.Update(0)
	assert.Empty(t, queued(sess))

	ws.Tick = 3
	out.Update(0)
	got := queued(sess)
	require.Len(t, got, 1)
	snap, err := handler.DecodeSnapshot(got[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(3), snap.Tick)
	assert.Len(t, snap.Entities, 1)
}

func TestOutputSystemSendsEveryPage(t *testing.T) {
	ws := world.NewState()
	for i := 0; i < 2*handler.SnapshotPageSize+1; i++ {
		ws.SpawnObstacle(geom.V(float64(i), 0), geom.IV(1, 1))
	}
	store := net.NewSessionStore()
	sess := pipeSession(t, 1)
	store.Add(sess)
	out := NewOutputSystem(ws, store, 1, zap.NewNop())

	out.Update(0)
	got := queued(sess)
	require.Len(t, got, 3)
	total := 0
	for i, data := range got {
		assert.LessOrEqual(t, len(data), net.MaxPayload)
		page, err := handler.DecodeSnapshot(data)
		require.NoError(t, err)
		assert.Equal(t, uint16(i), page.Page)
		total += len(page.Entities)
	}
	assert.Equal(t, ws.Len(), total)
	assert.False(t, sess.IsClosed())
}

type fakeRepo struct {
	events    []persist.EventRow
	snapshots [][]persist.SnapshotRow
	failNext  bool
}

func (f *fakeRepo) WriteBatch(_ context.Context, _ int64, rows []persist.EventRow) error {
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	f.events = append(f.events, rows...)
	return nil
}

func (f *fakeRepo) SaveBatch(_ context.Context, _ int64, rows []persist.SnapshotRow) error {
	f.snapshots = append(f.snapshots, append([]persist.SnapshotRow(nil), rows...))
	return nil
}

func TestPersistenceSystemBatches(t *testing.T) {
	ws := world.NewState()
	bus := event.NewBus()
	repo := &fakeRepo{failNext: true}
	ps := NewPersistenceSystem(ws, bus, repo, repo, 1, 2, 4, zap.NewNop())

	m := ws.SpawnMover(geom.V(0, 0), geom.IV(1, 1), 1, nil)
	event.Emit(bus, event.EntitySpawned{Entity: m.ID, Kind: "mover", Tick: 1})
	event.Emit(bus, event.GoalReached{Entity: m.ID, Pos: geom.V(2, 2), Tick: 1})
	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, 2, ps.Pending())

	ps.Update(time.Second)
	ps.Update(time.Second) // flush fails, events kept
	assert.Equal(t, 2, ps.Pending())
	assert.Empty(t, repo.events)

	ps.Update(time.Second)
	ps.Update(time.Second)
	assert.Zero(t, ps.Pending())
	require.Len(t, repo.events, 2)
	kinds := map[string]persist.EventRow{}
	for _, e := range repo.events {
		kinds[e.Kind] = e
	}
	require.Contains(t, kinds, "goal_reached")
	assert.Equal(t, 2.0, kinds["goal_reached"].X)
	assert.Contains(t, kinds, "spawned")

	require.Len(t, repo.snapshots, 1)
	assert.Equal(t, "mover", repo.snapshots[0][0].Kind)

	ps.Flush()
	assert.Len(t, repo.snapshots, 2)
}
