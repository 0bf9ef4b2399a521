// Package userstore is the local MongoDB user directory. It implements
// identity.Provider so it can stand in for the upstream auth API.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/identity"
	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"github.com/dalemusser/schoolhub/internal/app/system/tokens"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Collection holds directory users.
const Collection = "users"

var errBadRole = errors.New(`role must be STUDENT|TEACHER|ENROLLMENT_OFFICE|ADMIN`)

// dummyHash is compared against when an email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("schoolhub-dummy-password"), bcrypt.DefaultCost)

type Store struct {
	c      *mongo.Collection
	tokens *tokens.Manager
	cost   int
}

// New creates a Store. A bcryptCost outside bcrypt's range uses the default.
func New(db *mongo.Database, tm *tokens.Manager, bcryptCost int) *Store {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{c: db.Collection(Collection), tokens: tm, cost: bcryptCost}
}

var _ identity.Provider = (*Store)(nil)

// EnsureIndexes creates the unique case-insensitive email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_ci", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_ci_unique"),
	})
	return err
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.DirectoryUser, error) {
	var u models.DirectoryUser
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login checks the password and issues an access token.
func (s *Store) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", identity.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", identity.ErrInvalidCredentials
	}
	if !u.Enabled {
		return "", identity.ErrAccountDisabled
	}

	role := normalize.ResolveRole(rawFromDoc(u)).Role
	token, _, err := s.tokens.Issue(u.ID.Hex(), u.Email, role)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Me returns the stored user document for token, without the password.
func (s *Store) Me(ctx context.Context, token string) (normalize.RawUser, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, identity.ErrInvalidToken
	}
	oid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, identity.ErrInvalidToken
	}

	var doc bson.M
	proj := options.FindOne().SetProjection(bson.M{"password": 0, "email_ci": 0})
	if err := s.c.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identity.ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return normalize.RawUser(doc), nil
}

// Register inserts a new user after normalizing fields. Students are
// enabled at once; staff accounts start disabled until an administrator
// approves them.
func (s *Store) Register(ctx context.Context, reg identity.Registration) (normalize.RawUser, error) {
	if !reg.Role.Valid() {
		return nil, errBadRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	email := normalize.Email(reg.Email)
	u := models.DirectoryUser{
		ID:          primitive.NewObjectID(),
		Email:       email,
		EmailCI:     text.Fold(email),
		Password:    string(hash),
		FirstName:   normalize.Name(reg.FirstName),
		LastName:    normalize.Name(reg.LastName),
		PhoneNumber: normalize.Name(reg.PhoneNumber),
		Address:     normalize.Name(reg.Address),
		Roles:       []string{string(reg.Role)},
		Enabled:     reg.Role == models.RoleStudent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, identity.ErrDuplicateEmail
		}
		return nil, err
	}
	return rawFromDoc(&u), nil
}

// SetEnabled enables or disables an account.
func (s *Store) SetEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"enabled":   enabled,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Pending lists disabled accounts, oldest first, without password hashes.
func (s *Store) Pending(ctx context.Context, limit int64) ([]models.DirectoryUser, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"enabled": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.DirectoryUser
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// rawFromDoc presents a directory document the way Me returns it.
func rawFromDoc(u *models.DirectoryUser) normalize.RawUser {
	roles := make(primitive.A, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r)
	}
	return normalize.RawUser{
		"_id":         u.ID,
		"email":       u.Email,
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"phoneNumber": u.PhoneNumber,
		"address":     u.Address,
		"roles":       roles,
		"enabled":     u.Enabled,
		"createdAt":   u.CreatedAt,
		"updatedAt":   u.UpdatedAt,
	}
}
