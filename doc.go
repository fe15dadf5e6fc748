// Package userapi implements a small user account backend: registration,
// credential login, and profile management behind a JWT guard.
//
// Tokens:
//   - TokenServiceImpl signs HS256 session tokens whose subject is the
//     store-assigned user id. The time source is injectable via WithClock so
//     expiry behavior can be pinned in tests.
//   - middleware/authware guards every route outside the configured
//     allow-list, storing validated claims on the request context.
//
// Errors:
//   - Every failure is classified into the shared taxonomy declared in
//     errors.go and answered with the {data, error} envelope. Handlers return
//     errors; the global fiber error handler owns serialization, so no
//     handler writes an error body directly.
//
// Storage:
//   - Users is a Bun-backed repository over the users table. Driver-level
//     failures (unique constraints, deadlines) are translated at the store
//     boundary so the domain service only ever sees taxonomy errors.
package userapi
