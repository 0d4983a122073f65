package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

// EnsureIndexes creates the unique indexes the reconciler depends on: one
// payment per booking, one payment per tx_ref, one user per email.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := c.DB.Collection(paymentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: map[string]int{"tx_ref": 1}, Options: unique},
		{Keys: map[string]int{"booking_id": 1}, Options: unique},
	})
	if err != nil {
		return err
	}
	_, err = c.DB.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: map[string]int{"email": 1}, Options: unique,
	})
	if err != nil {
		return err
	}
	_, err = c.DB.Collection(bookingsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: map[string]int{"listing_id": 1, "state": 1},
	})
	return err
}
