// Package mongo provides MongoDB connection management and the account
// directory used by the authentication core.
//
// Connections are configured from the environment, retried with a constant
// backoff until the server answers a ping, and exposed to health endpoints
// through Healthcheck.
//
// # Usage
//
//	cfg := mongo.Config{ConnectionURL: "mongodb://localhost:27017", Database: "gatekeeper"}
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect(context.Background())
//
//	accounts, err := mongo.NewAccountDirectory(ctx, client.Database(cfg.Database))
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Accounts
//
// AccountDirectory stores one document per account keyed by the account
// UUID. A unique index on the normalized email turns concurrent duplicate
// inserts into auth.ErrDuplicateAccount. Updates use FindOneAndUpdate with
// $set so only the patched fields are written.
//
// # Error Handling
//
// Connection failures match ErrConnect and failed pings match ErrUnavailable.
package mongo
