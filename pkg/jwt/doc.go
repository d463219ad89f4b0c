// Package jwt issues and verifies the service's session tokens.
//
// Tokens are HS256-signed JWTs carrying the account identifier as subject and
// a random token ID (jti). The signing key is fixed when the Service is built
// and never changes afterwards. Verification pins the signing method, so a
// token whose header announces any other algorithm, including "none", is
// rejected before its signature is considered.
//
//	svc, err := jwt.NewFromString(cfg.JWTSecret, jwt.WithTTL(24*time.Hour), jwt.WithIssuer("gatekeeper"))
//	tok, err := svc.Issue(accountID.String())
//	claims, err := svc.Verify(tok.Value)
//
// Tokens are stateless. Revocation, if any, is the caller's concern: the
// token ID is exposed so it can be matched against server-side state.
package jwt
