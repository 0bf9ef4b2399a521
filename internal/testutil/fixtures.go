package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a directory user with the given roles array and a
// bcrypt hash of password. Roles are stored verbatim so tests can seed
// legacy shapes such as "ROLE_TEACHER".
func (f *Fixtures) CreateUser(ctx context.Context, email, password string, enabled bool, roles ...string) models.DirectoryUser {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}

	email = normalize.Email(email)
	now := time.Now().UTC().Truncate(time.Millisecond)
	u := models.DirectoryUser{
		ID:        primitive.NewObjectID(),
		Email:     email,
		EmailCI:   text.Fold(email),
		Password:  string(hash),
		FirstName: "Test",
		LastName:  "User",
		Roles:     roles,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create user: %v", err)
	}
	return u
}

// CreateActiveUser inserts an enabled user with a single role.
func (f *Fixtures) CreateActiveUser(ctx context.Context, email, password string, role models.Role) models.DirectoryUser {
	f.t.Helper()
	return f.CreateUser(ctx, email, password, true, string(role))
}

// CreateDisabledUser inserts a disabled user with a single role.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, email, password string, role models.Role) models.DirectoryUser {
	f.t.Helper()
	return f.CreateUser(ctx, email, password, false, string(role))
}
