package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/session"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sidKey = "sid"

// sidBackend stores the session server-side and keeps only a random id in
// the signed cookie. Every Write issues a new id so a session id seen before
// sign-in is never reused after it.
type sidBackend struct {
	m *SessionManager
	w http.ResponseWriter
	r *http.Request
}

// cookie returns the gorilla session carrying the id. Decode errors start a
// fresh one.
func (b *sidBackend) cookie() (*sessions.Session, error) {
	sess, err := b.m.store.Get(b.r, b.m.name)
	if err != nil && !session.IsDecodeError(err) {
		return nil, err
	}
	return sess, nil
}

func (b *sidBackend) sid() string {
	sess, err := b.cookie()
	if err != nil {
		return ""
	}
	sid, _ := sess.Values[sidKey].(string)
	return sid
}

func (b *sidBackend) Read(ctx context.Context) (session.Entries, error) {
	sid := b.sid()
	if sid == "" {
		return session.Entries{}, nil
	}
	return b.m.keyed.ReadEntries(ctx, sid)
}

func (b *sidBackend) Write(ctx context.Context, e session.Entries) error {
	sess, err := b.cookie()
	if err != nil {
		return err
	}
	if old, _ := sess.Values[sidKey].(string); old != "" {
		if err := b.m.keyed.EraseEntries(ctx, old); err != nil {
			return err
		}
	}

	sid := uuid.NewString()
	if err := session.Bind(b.m.keyed, sid).Write(ctx, e); err != nil {
		return err
	}
	sess.Values[sidKey] = sid
	return sess.Save(b.r, b.w)
}

func (b *sidBackend) Erase(ctx context.Context) error {
	sess, err := b.cookie()
	if err != nil {
		return err
	}
	if sid, _ := sess.Values[sidKey].(string); sid != "" {
		if err := b.m.keyed.EraseEntries(ctx, sid); err != nil {
			return err
		}
	}
	delete(sess.Values, sidKey)
	return session.SaveExpired(b.r, b.w, sess)
}
