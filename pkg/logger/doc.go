// Package logger builds *slog.Logger instances with consistent defaults and
// attribute names for the service.
//
// New applies functional options on top of production defaults (JSON, info
// level, stdout). WithEnvironment picks text output at debug level for
// development and JSON at info level elsewhere. Context extractors registered
// with WithContextExtractors or WithContextValue add request-scoped attributes,
// such as the request ID, to every record logged with a *Context method.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "gatekeeper"),
//		logger.WithContextExtractors(RequestIDExtractor),
//	)
//	log.InfoContext(ctx, "account created", logger.AccountID(acc.ID), logger.Provider("google"))
//
// Attribute helpers in attr.go return empty attributes for nil values, which
// slog drops from the output.
package logger
