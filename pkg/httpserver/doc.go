// Package httpserver runs an http.Handler with production timeouts and
// graceful shutdown, and provides liveness and readiness handlers.
//
// Run blocks until its context is cancelled, then stops accepting
// connections and drains in-flight requests within the shutdown timeout.
// Signal handling belongs to the caller:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Config reads HTTP_ADDR and the HTTP_*_TIMEOUT variables. Listen and
// serve failures match ErrStart; a shutdown that exceeds its deadline
// matches ErrShutdown.
//
// ReadinessHandler runs named Check functions, such as the Mongo and Redis
// pings, and answers 503 when any fails.
package httpserver
