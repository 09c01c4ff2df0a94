package handler

import (
	"fmt"
	"math"

	"github.com/dorfsim/server/internal/net"
	"github.com/dorfsim/server/internal/net/packet"
	"github.com/dorfsim/server/internal/world"
	"github.com/vmihailenco/msgpack/v5"
)

// EntityView is one entity as observers see it.
type EntityView struct {
	ID      uint64  `msgpack:"id"`
	Kind    string  `msgpack:"kind"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	W       int32   `msgpack:"w"`
	H       int32   `msgpack:"h"`
	PathLen int     `msgpack:"path_len,omitempty"`
	HasGoal bool    `msgpack:"has_goal,omitempty"`
}

// Snapshot is the S_SNAPSHOT body.
type Snapshot struct {
	Tick     uint64       `msgpack:"tick"`
	Entities []EntityView `msgpack:"entities"`
}

// BuildSnapshot captures every live entity in slot order.
func BuildSnapshot(ws *world.State) Snapshot {
	snap := Snapshot{
		Tick:     ws.Tick,
		Entities: make([]EntityView, 0, ws.Len()),
	}
	ws.Each(func(e *world.Entity) {
		snap.Entities = append(snap.Entities, EntityView{
			ID:      uint64(e.ID),
			Kind:    e.Kind.String(),
			X:       e.Pos.X,
			Y:       e.Pos.Y,
			W:       e.Scale.X,
			H:       e.Scale.Y,
			PathLen: e.Path.Len(),
			HasGoal: e.Goal != nil || e.Path != nil,
		})
	})
	return snap
}

// SnapshotPageSize caps entities per S_SNAPSHOT frame. A msgpack EntityView
// is at most ~100 bytes, so a full page stays well under net.MaxPayload.
const SnapshotPageSize = 256

// SnapshotPage is one decoded S_SNAPSHOT frame. Page is zero-based.
type SnapshotPage struct {
	Tick     uint64
	Page     uint16
	Pages    uint16
	Entities []EntityView
}

// EncodeSnapshot splits a snapshot into S_SNAPSHOT packets of at most
// SnapshotPageSize entities. An empty world still yields one page.
// Format: [opcode][Q tick][H page][H pages][msgpack body]
func EncodeSnapshot(snap Snapshot) ([][]byte, error) {
	pages := (len(snap.Entities) + SnapshotPageSize - 1) / SnapshotPageSize
	if pages == 0 {
		pages = 1
	}
	if pages > math.MaxUint16 {
		return nil, fmt.Errorf("encode snapshot: %d entities need %d pages", len(snap.Entities), pages)
	}

	out := make([][]byte, 0, pages)
	for p := 0; p < pages; p++ {
		lo := p * SnapshotPageSize
		hi := min(lo+SnapshotPageSize, len(snap.Entities))
		part := Snapshot{Tick: snap.Tick, Entities: snap.Entities[lo:hi]}
		body, err := msgpack.Marshal(&part)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot page %d: %w", p, err)
		}
		w := packet.NewWriterWithOpcode(packet.S_SNAPSHOT)
		w.WriteQ(snap.Tick)
		w.WriteH(uint16(p))
		w.WriteH(uint16(pages))
		w.WriteBytes(body)
		if w.Len() > net.MaxPayload {
			return nil, fmt.Errorf("encode snapshot page %d: %d bytes exceeds frame limit", p, w.Len())
		}
		out = append(out, w.Bytes())
	}
	return out, nil
}

// DecodeSnapshot parses one S_SNAPSHOT packet.
func DecodeSnapshot(data []byte) (SnapshotPage, error) {
	r := packet.NewReader(data)
	if r.Opcode() != packet.S_SNAPSHOT {
		return SnapshotPage{}, fmt.Errorf("decode snapshot: opcode 0x%02X", r.Opcode())
	}
	page := SnapshotPage{Tick: r.ReadQ(), Page: r.ReadH(), Pages: r.ReadH()}
	if err := r.Err(); err != nil {
		return SnapshotPage{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if page.Page >= page.Pages {
		return SnapshotPage{}, fmt.Errorf("decode snapshot: page %d of %d", page.Page, page.Pages)
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(r.ReadBytes(r.Remaining()), &snap); err != nil {
		return SnapshotPage{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Tick != page.Tick {
		return SnapshotPage{}, fmt.Errorf("decode snapshot: header tick %d, body tick %d", page.Tick, snap.Tick)
	}
	page.Entities = snap.Entities
	return page, nil
}
