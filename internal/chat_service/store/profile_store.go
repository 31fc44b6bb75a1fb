package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bostr/internal/models"
)

const userProfileCollection = "userProfiles"

// ProfileStore reads the per-user records used to personalise chat answers.
type ProfileStore struct {
	coll *mongo.Collection
}

func NewProfileStore(db *mongo.Database) *ProfileStore {
	return &ProfileStore{coll: db.Collection(userProfileCollection)}
}

// Get returns the profile for userID, or nil when no profile exists.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for user %q: %w", userID, err)
	}
	return &profile, nil
}
