// Package http provides HTTP handlers and middleware for the homedash API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 No Content
//     and clears the cookie.
//   - PUT /users/me/password: rotates the authenticated user's password and
//     revokes all of their sessions. Body: {"current_password","new_password"}.
//   - GET /boards, POST /boards, GET /boards/{id}, DELETE /boards/{id},
//     PUT /boards/{id}/layout, PUT /boards/{id}/home: board management
//     endpoints exchanging the `boardDTO` payload defined in board_handler.go.
//   - GET /integrations, POST /integrations, DELETE /integrations/{id},
//     GET /integrations/{id}/config, GET /integrations/{id}/shares,
//     POST /integrations/{id}/shares: integration instance endpoints
//     exchanging the payloads defined in integration_handler.go. Stored
//     configs are decrypted only on the /config endpoint.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
