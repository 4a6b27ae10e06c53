// Package services contains the application services of the marketplace
// client: the session store, optimistic saved-listing toggles, the listing
// search composer and chat session bootstrap.
//
// Services talk to the backend through narrow interfaces (SessionAPI,
// ListingAPI, ChatAPI) that *client.HTTPClient satisfies, and report state to
// front ends through snapshots and Subscribe callbacks.
package services
