package net

// SessionStore tracks live sessions by ID.
// Accessed only from the game loop goroutine. No locks.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session) { st.sessions[s.ID] = s }

func (st *SessionStore) Remove(id uint64) { delete(st.sessions, id) }

func (st *SessionStore) Get(id uint64) *Session { return st.sessions[id] }

func (st *SessionStore) Count() int { return len(st.sessions) }

// Raw exposes the map for iteration by the game loop.
func (st *SessionStore) Raw() map[uint64]*Session { return st.sessions }

// Broadcast buffers data on every open session.
func (st *SessionStore) Broadcast(data []byte) {
	for _, s := range st.sessions {
		if !s.IsClosed() {
			s.Send(data)
		}
	}
}

// ForEach calls fn for every tracked session.
func (st *SessionStore) ForEach(fn func(*Session)) {
	for _, s := range st.sessions {
		fn(s)
	}
}
