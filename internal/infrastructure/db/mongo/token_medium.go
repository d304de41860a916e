package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tokenCollection = "client_tokens"

// TokenMedium persists one client's bearer token as a single document keyed
// by the client id.
type TokenMedium struct {
	coll     *mongo.Collection
	clientID string
}

func NewTokenMedium(db *mongo.Database, clientID string) *TokenMedium {
	return &TokenMedium{coll: db.Collection(tokenCollection), clientID: clientID}
}

type tokenDoc struct {
	ClientID  string    `bson:"_id"`
	Token     string    `bson:"token"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m *TokenMedium) Load(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc tokenDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": m.clientID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find token: %w", err)
	}
	return doc.Token, nil
}

func (m *TokenMedium) Save(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"token": token, "updated_at": time.Now().UTC()}}
	_, err := m.coll.UpdateOne(ctx, bson.M{"_id": m.clientID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (m *TokenMedium) Delete(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": m.clientID}); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
