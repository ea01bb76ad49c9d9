package refstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
)

// ProfileStore looks up caller history by phone number. Read-only to
// the pipeline; the conversation layer owns writes.
type ProfileStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewProfileStore(db *mongo.Database, logger *zap.Logger) *ProfileStore {
	return &ProfileStore{coll: db.Collection("caller_profiles"), logger: logger}
}

// Lookup returns nil without error when the caller is unknown.
func (ps *ProfileStore) Lookup(ctx context.Context, phone string) (*models.CallerProfile, error) {
	if phone == "" {
		return nil, nil
	}
	var profile models.CallerProfile
	err := ps.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	return &profile, nil
}
