package loginstore_test

import (
	"testing"
	"time"

	loginstore "github.com/dalemusser/schoolhub/internal/app/store/logins"
	"github.com/dalemusser/schoolhub/internal/app/system/session"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/schoolhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := models.LoginRecord{
		UserID: "user-1",
		Email:  "a@school.test",
		Role:   "ADMIN",
		Event:  models.LoginEventLogin,
		IP:     "192.168.1.1",
	}

	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var found models.LoginRecord
	err := db.Collection("login_records").FindOne(ctx, bson.M{"user_id": "user-1"}).Decode(&found)
	if err != nil {
		t.Fatalf("failed to find login record: %v", err)
	}
	if found.IP != "192.168.1.1" {
		t.Errorf("IP: got %q, want %q", found.IP, "192.168.1.1")
	}
	// CreatedAt should be set automatically
	if found.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_WithExplicitTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Create(ctx, models.LoginRecord{UserID: "u", Event: models.LoginEventLogin, CreatedAt: ts}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	recs, err := store.Recent(ctx, "u", 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recs) != 1 || !recs[0].CreatedAt.Equal(ts) {
		t.Errorf("Recent = %+v, want one record at %v", recs, ts)
	}
}

func TestStore_SessionChanged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	// Drive the store through a real repository.
	repo := session.NewRepository(session.Bind(session.NewMemoryStore(), "sid"), zap.NewNop(),
		session.WithObservers(store),
		session.WithMeta(session.Meta{IP: "10.1.2.3", UserAgent: "go-test"}))

	u := *testutil.TeacherUser()
	if err := repo.Set(ctx, "tok", u); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	recs, err := store.Recent(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Event != models.LoginEventLogout || recs[1].Event != models.LoginEventLogin {
		t.Errorf("events = %q, %q", recs[0].Event, recs[1].Event)
	}
	if recs[1].Role != "TEACHER" || recs[1].IP != "10.1.2.3" || recs[1].UserAgent != "go-test" {
		t.Errorf("login record = %+v", recs[1])
	}
}

func TestStore_LatestAcrossUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		rec := models.LoginRecord{UserID: id, Event: models.LoginEventLogin, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	recs, err := store.Latest(ctx, 2)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(recs) != 2 || recs[0].UserID != "c" || recs[1].UserID != "b" {
		t.Errorf("Latest = %+v, want c then b", recs)
	}
}
