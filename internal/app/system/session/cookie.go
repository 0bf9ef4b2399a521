package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// CookieBackend keeps both entries inside one signed gorilla session
// cookie, so every Write or Erase is a single Set-Cookie.
type CookieBackend struct {
	store sessions.Store
	name  string
	w     http.ResponseWriter
	r     *http.Request
}

// NewCookieBackend binds the cookie named name to one request/response.
func NewCookieBackend(store sessions.Store, name string, w http.ResponseWriter, r *http.Request) *CookieBackend {
	return &CookieBackend{store: store, name: name, w: w, r: r}
}

// IsDecodeError reports whether err comes from a cookie that could not be
// decoded (tampered, signed with an old key, or expired).
func IsDecodeError(err error) bool {
	var scErr securecookie.Error
	return errors.As(err, &scErr) && scErr.IsDecode()
}

// session returns the gorilla session, starting a fresh one when the
// existing cookie cannot be decoded.
func (b *CookieBackend) session() (*sessions.Session, error) {
	sess, err := b.store.Get(b.r, b.name)
	if err != nil && !IsDecodeError(err) {
		return nil, err
	}
	return sess, nil
}

func (b *CookieBackend) Read(_ context.Context) (Entries, error) {
	sess, err := b.session()
	if err != nil {
		return Entries{}, err
	}
	var e Entries
	e.Token, _ = sess.Values[TokenKey].(string)
	e.User, _ = sess.Values[UserKey].(string)
	return e, nil
}

func (b *CookieBackend) Write(_ context.Context, e Entries) error {
	sess, err := b.session()
	if err != nil {
		return err
	}
	sess.Values[TokenKey] = e.Token
	sess.Values[UserKey] = e.User
	return sess.Save(b.r, b.w)
}

func (b *CookieBackend) Erase(_ context.Context) error {
	sess, err := b.session()
	if err != nil {
		return err
	}
	delete(sess.Values, TokenKey)
	delete(sess.Values, UserKey)
	return SaveExpired(b.r, b.w, sess)
}

// SaveExpired writes a deletion cookie for sess. gorilla caches sess for
// the rest of the request, so its options are restored afterwards and a
// later Save in the same request writes a live cookie again.
func SaveExpired(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	prev := sess.Options
	if prev == nil {
		prev = &sessions.Options{Path: "/"}
	}
	opts := *prev
	opts.MaxAge = -1
	sess.Options = &opts
	err := sess.Save(r, w)
	sess.Options = prev
	return err
}
