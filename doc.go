// Package users provides credential management for a user API: bcrypt
// password hashing, JWT issuance and validation, and the HTTP surface that
// registers accounts, logs users in, and guards protected routes.
//
// Guard modes:
//   - Protected routes require a valid bearer token; a missing header, a
//     malformed token, a bad signature, or an expired token all collapse into
//     one generic unauthorized response so the caller learns nothing about
//     why verification failed.
//   - Optional routes never block. A request without a token, or with a token
//     that fails verification, continues anonymously; identity is attached to
//     the request context only when verification fully succeeds.
//
// Tokens are stateless: validity is determined solely by signature and
// expiry, there is no server-side session store or revocation list. Rotating
// the signing secret invalidates every outstanding token.
package users
