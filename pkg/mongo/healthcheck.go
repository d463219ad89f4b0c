package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Healthcheck pings the primary. The returned error matches ErrUnavailable.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		err := client.Ping(ctx, readpref.Primary())
		if err == nil {
			return nil
		}
		return errors.Join(ErrUnavailable, err)
	}
}
