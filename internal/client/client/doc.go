// Package client talks to the hbd REST backend.
//
// # Overview
//
//  1. Client is the transport-agnostic contract: login, registration, profile
//     read/update, account deletion, birthday add/modify/delete, reminder check
//     and liveness probe.
//  2. HTTPClient implements it over JSON/HTTP. One auth scheme is active per
//     client: the key scheme embeds {"auth": {email, encryption_key}} in request
//     bodies, the token scheme sends "Authorization: Bearer <token>".
//  3. InitDatabase and RunMigrations bootstrap the local SQLite database used by
//     the session store and the birthday cache.
//
// # Responses
//
// Each endpoint's body is decoded into an explicit wire type and checked for
// its required fields before being turned into models values, so nothing
// half-formed reaches the session store or the list manager.
//
// # Error Handling
//
// Failures map onto sentinels matched with errors.Is: ErrUnavailable
// (transport errors, timeouts, 502/503/504), ErrUnauthorized (401/403),
// ErrRateLimited (429), ErrRejected (any other non-success answer, with the
// server's message), ErrInvalidResponse (malformed or incomplete body).
// Nothing is retried.
//
// Every request carries an X-Request-ID and passes through a client-side
// token bucket so bursts stay under the backend gateway limit.
package client
