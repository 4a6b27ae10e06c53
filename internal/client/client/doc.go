// Package client is the single choke point between the marketplace client and
// its REST backend.
//
// # Overview
//
// HTTPClient wraps net/http with an authenticating round tripper that:
//  1. Attaches the stored access token as a bearer credential on every
//     non-anonymous request, reading it from the token store each time.
//  2. Reacts to a 401 by refreshing the access token once, shared by all
//     requests that hit the 401 concurrently, and replaying the request.
//  3. Clears the stored tokens and fires the auth-expired hooks when the
//     refresh is impossible or the replay is rejected again.
//
// Typed endpoint helpers (Login, ListListings, SaveListing, ChatToken, ...)
// sit on top of Do and speak the backend's JSON shapes.
//
// # Error Handling
//
// Failures are classified into typed errors callers can match with errors.As:
// TimeoutError, NetworkError, AuthExpiredError, ValidationError and APIError.
// Context cancellation is returned wrapped and matches context.Canceled.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. Every call takes a context.Context
// and honours its cancellation and deadline.
package client
