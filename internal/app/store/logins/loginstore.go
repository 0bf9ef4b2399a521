package loginstore

import (
	"context"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/session"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection holds login and logout records.
const Collection = "login_records"

type Store struct {
	c   *mongo.Collection
	log *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{c: db.Collection(Collection), log: logger}
}

// EnsureIndexes creates the indexes used by Recent and Latest.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created"),
		},
	})
	return err
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// Recent returns up to limit records for userID, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int64) ([]models.LoginRecord, error) {
	return s.find(ctx, bson.M{"user_id": userID}, limit)
}

// Latest returns up to limit records across all users, newest first.
func (s *Store) Latest(ctx context.Context, limit int64) ([]models.LoginRecord, error) {
	return s.find(ctx, bson.M{}, limit)
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]models.LoginRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LoginRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionChanged records sign-ins and sign-outs. It implements
// session.Observer; failures are logged and never block the request.
func (s *Store) SessionChanged(ctx context.Context, c session.Change) {
	event := models.LoginEventLogin
	if c.Kind == session.Cleared {
		event = models.LoginEventLogout
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "login record insert")
	defer cancel()

	err := s.Create(ctx, models.LoginRecord{
		UserID:    c.User.ID,
		Email:     c.User.Email,
		Role:      string(c.User.Role),
		Event:     event,
		IP:        c.Meta.IP,
		UserAgent: c.Meta.UserAgent,
	})
	if err != nil {
		s.log.Warn("login record insert failed",
			zap.Error(err),
			zap.String("user_id", c.User.ID),
			zap.String("event", event))
	}
}
