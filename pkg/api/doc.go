// Package api exposes the account flows over HTTP.
//
// Routes are mounted on a chi router and speak JSON wrapped in a common
// envelope:
//
//	{"data": ..., "error": {"code": "...", "message": "...", "details": {...}}}
//
// Flow errors from package auth are mapped to status codes and stable
// error codes in one place. Internal causes are logged and never written
// to the client.
//
// Usage:
//
//	a := api.New(svc,
//		api.WithLogger(log),
//		api.WithMetrics(api.NewMetrics()),
//		api.WithReadinessChecks(2*time.Second, checks...),
//	)
//	srv.Start(ctx, a.Routes())
//
// Protected routes read the bearer token, resolve it with
// AccountService.Authenticate and expose the account through
// AccountFromContext.
package api
