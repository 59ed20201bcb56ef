package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SessionStore keeps the live scenes of open editing sessions.
type SessionStore struct {
	mu       sync.RWMutex
	resolver *Resolver
	scenes   map[uuid.UUID]*Scene
}

func NewSessionStore(resolver *Resolver) *SessionStore {
	return &SessionStore{
		resolver: resolver,
		scenes:   make(map[uuid.UUID]*Scene),
	}
}

// Open starts an empty scene owned by ownerID.
func (st *SessionStore) Open(ownerID uuid.UUID) *Scene {
	s := NewScene(ownerID, st.resolver)
	st.put(s)
	return s
}

func (st *SessionStore) put(s *Scene) {
	st.mu.Lock()
	st.scenes[s.ID()] = s
	st.mu.Unlock()
}

func (st *SessionStore) Get(ownerID, id uuid.UUID) (*Scene, error) {
	st.mu.RLock()
	s, ok := st.scenes[id]
	st.mu.RUnlock()
	if !ok {
		return nil, sceneNotFound(id)
	}
	if s.OwnerID() != ownerID {
		return nil, ErrAuthorization
	}
	return s, nil
}

// Replace swaps loaded content into the open scene id. Subscribers of the
// open scene keep receiving updates.
func (st *SessionStore) Replace(ownerID, id uuid.UUID, loaded *Scene) (*Scene, error) {
	s, err := st.Get(ownerID, id)
	if err != nil {
		return nil, err
	}
	s.adopt(loaded)
	return s, nil
}

func (st *SessionStore) Close(ownerID, id uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.scenes[id]
	if !ok {
		return sceneNotFound(id)
	}
	if s.OwnerID() != ownerID {
		return ErrAuthorization
	}
	delete(st.scenes, id)
	s.closeSubscribers()
	return nil
}

func (u Usecase) OpenScene(ctx context.Context) (*Scene, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return u.sessions.Open(userID), nil
}

func (u Usecase) GetScene(ctx context.Context, id uuid.UUID) (*Scene, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return u.sessions.Get(userID, id)
}

func (u Usecase) CloseScene(ctx context.Context, id uuid.UUID) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	return u.sessions.Close(userID, id)
}
