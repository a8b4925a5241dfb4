package userstore

import (
	"context"

	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// publicProjection limits reads to the fields exposed to collaborators.
var publicProjection = bson.M{
	"_id":        1,
	"full_name":  1,
	"email":      1,
	"avatar_url": 1,
	"status":     1,
}

// Fetcher resolves user ids to public identities. It implements
// auth.UserFetcher for the handshake and the collaborator directory used
// by the collaboration hub.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a Fetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// disabled, or if any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *models.PublicUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Lookup())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(publicProjection)
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		return nil
	}
	if u.Status == StatusDisabled {
		return nil
	}

	pu := u.Public()
	return &pu
}

// FetchMany resolves ids in one query and returns identities in the order
// of ids. Ids that are malformed, missing, or disabled are dropped.
func (f *Fetcher) FetchMany(ctx context.Context, ids []string) ([]models.PublicUser, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []models.PublicUser{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	cur, err := f.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetProjection(publicProjection))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	byID := make(map[string]models.User, len(oids))
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		byID[u.ID.Hex()] = u
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	out := make([]models.PublicUser, 0, len(byID))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || u.Status == StatusDisabled {
			continue
		}
		out = append(out, u.Public())
	}
	return out, nil
}
