package mission

import "sync"

// Store keeps the in-memory mission sessions of the control API.
type Store struct {
	mission Mission
	zones   *Zones

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(m Mission, zones *Zones) *Store {
	if zones == nil {
		zones = &Zones{}
	}
	return &Store{
		mission:  m,
		zones:    zones,
		sessions: map[string]*Session{},
	}
}

func (st *Store) Mission() Mission {
	return st.mission
}

func (st *Store) Create() *Session {
	s := NewSession(st.mission)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID()] = s
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// OpenZoneAt opens the zone containing the visitor's position.
func (st *Store) OpenZoneAt(sessionID string, lng, lat float64) (Zone, error) {
	s, err := st.Get(sessionID)
	if err != nil {
		return Zone{}, err
	}

	zoneID, ok := st.zones.Locate(lng, lat)
	if !ok {
		return Zone{}, ErrUnknownZone
	}
	return s.OpenZone(zoneID)
}
