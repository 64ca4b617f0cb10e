// Package auth is the authentication decision engine behind the HMPPS
// sign-in service: it verifies credentials against heterogeneous
// identity stores, enforces a shared account-lockout policy, and issues
// the signed claims tokens relying services trust.
//
// Verification:
//   - Dispatcher orchestrates one attempt end to end. The backing store
//     (nomis, oasys, delius, or the locally-owned auth store) is picked
//     at wiring time through the IdentityBackend contract; the
//     DelegatingVerifier resolves the password scheme from the stored
//     record, covering bcrypt plus the two legacy SHA-1 formats.
//   - Lockout tracks consecutive failures per username in a
//     RetryCounterStore (in-memory, Redis, or the user_retries table)
//     and writes a grace-aware locked status back to the backend when
//     the threshold trips.
//
// Tokens:
//   - TokenService signs RS256 claim tokens carrying the authority set,
//     display name, originating auth_source, and user id; TokenParser
//     verifies them, reading an expired token as absent rather than an
//     error. AzureADReader accepts federated tokens via JWKS and maps
//     them onto the same principal shape.
//   - ExternalIdentityResolver lets trusted client-credential grants act
//     as an end user, widening the token's scope and authority union.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter; every
//     authentication attempt records exactly one success or failure
//     event. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking authentication.
package auth
