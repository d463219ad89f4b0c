// Package auth implements the authentication core of the account service.
//
// Service orchestrates four flows over a small set of collaborators:
//
//   - Register creates a password account and issues a session token.
//   - Login checks a password and issues a session token.
//   - ThirdPartySignIn verifies a Google, Facebook or Apple token, finds or
//     creates the account with that email and issues a session token.
//   - Logout clears the account's session reference.
//
// Collaborators are interfaces so each can be swapped or mocked:
//
//   - PasswordHasher hashes and checks credentials (BcryptHasher).
//   - TokenIssuer signs and verifies session tokens (*jwt.Service).
//   - IdentityVerifier turns a provider token into a Claim. There is one
//     implementation per provider because their trust models differ:
//     GoogleVerifier checks an OIDC ID token against Google's keys,
//     FacebookVerifier introspects an access token against the Graph API,
//     AppleVerifier checks an RS256 ID token against Apple's JWKS.
//   - AccountDirectory stores accounts with a unique email. MemoryDirectory
//     is provided here, the MongoDB implementation lives in pkg/mongo.
//
// # Errors
//
// Every failure returned by Service matches one of the sentinel errors in
// errors.go via errors.Is. Login returns ErrInvalidCredentials for both an
// unknown email and a wrong password. Provider failures, including timeouts,
// match ErrVerification. Underlying causes are kept in the chain for logging
// and must not be shown to clients.
//
// # Sessions
//
// Session tokens are stateless JWTs. The jti of the most recently issued
// token is stored on the account as SessionRef and cleared by Logout.
// Authenticate requires the presented token's jti to match, so a logged out
// or superseded token stops working on protected routes even though it is
// still cryptographically valid. Each account therefore has at most one live
// session.
//
// # Concurrency
//
// Email uniqueness is enforced by the directory, never by locks in Service.
// Two concurrent registrations for one email produce one account and one
// ErrDuplicateAccount. Two concurrent first-time third-party sign-ins for one
// email produce one account: the loser of the create race looks the account
// up again and signs in to it.
package auth
