package session

import "context"

// KeyedStore holds the entries of many server-side sessions, addressed by
// session id. The browser only carries the id.
type KeyedStore interface {
	ReadEntries(ctx context.Context, sid string) (Entries, error)
	WriteEntries(ctx context.Context, sid string, e Entries) error
	EraseEntries(ctx context.Context, sid string) error
}

// Bind returns the Backend for one session id in store.
func Bind(store KeyedStore, sid string) Backend {
	return boundBackend{store: store, sid: sid}
}

type boundBackend struct {
	store KeyedStore
	sid   string
}

func (b boundBackend) Read(ctx context.Context) (Entries, error) {
	return b.store.ReadEntries(ctx, b.sid)
}

func (b boundBackend) Write(ctx context.Context, e Entries) error {
	return b.store.WriteEntries(ctx, b.sid, e)
}

func (b boundBackend) Erase(ctx context.Context) error {
	return b.store.EraseEntries(ctx, b.sid)
}
