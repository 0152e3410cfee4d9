package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSessionStore struct {
	// sessionID -> userID
	sessions map[string]uint
	failAll  bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]uint)}
}

func (f *fakeSessionStore) Create(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error {
	if f.failAll {
		return errors.New("store unavailable")
	}
	f.sessions[sessionID] = userID
	return nil
}

func (f *fakeSessionStore) DeleteOthers(ctx context.Context, userID uint, exceptID string) (int64, error) {
	if f.failAll {
		return 0, errors.New("store unavailable")
	}
	var deleted int64
	for id, uid := range f.sessions {
		if uid == userID && id != exceptID {
			delete(f.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, ok := f.sessions[sessionID]
	return ok, nil
}

func TestEnforceSingleSession(t *testing.T) {
	store := newFakeSessionStore()
	ctx := context.Background()

	// 同一账号两个会话，另一账号一个会话
	store.Create(ctx, "a-first", 1, time.Hour)
	store.Create(ctx, "a-second", 1, time.Hour)
	store.Create(ctx, "b-only", 2, time.Hour)

	svc := &AuthService{Sessions: store}
	svc.EnforceSingleSession(ctx, 1, "a-second")

	if ok, _ := store.Exists(ctx, "a-first"); ok {
		t.Error("older session of the same account should be evicted")
	}
	if ok, _ := store.Exists(ctx, "a-second"); !ok {
		t.Error("the session being kept must survive")
	}
	if ok, _ := store.Exists(ctx, "b-only"); !ok {
		t.Error("sessions of other accounts must not be touched")
	}
}

// 会话清理失败不应 panic，保留的新会话依旧有效
func TestEnforceSingleSessionStoreFailure(t *testing.T) {
	store := newFakeSessionStore()
	store.Create(context.Background(), "keep", 1, time.Hour)
	store.failAll = true

	svc := &AuthService{Sessions: store}
	svc.EnforceSingleSession(context.Background(), 1, "keep")

	store.failAll = false
	if ok, _ := store.Exists(context.Background(), "keep"); !ok {
		t.Error("kept session must remain after a failed cleanup")
	}
}
