// Package redis connects to Redis for the shared login-throttle store.
//
// Connect retries the initial ping with a constant backoff so a service
// started alongside Redis does not fail on the first attempt. Healthcheck
// adapts a client to the readiness endpoint.
//
//	cfg := redis.Config{ConnectionURL: "redis://localhost:6379/0"}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Redis is optional: Config.Enabled reports false when REDIS_URL is unset
// and callers fall back to in-process state.
package redis
