// Package cli provides the interactive campus marketplace command-line client.
//
// It wires configuration, local token storage, the HTTP client and the
// session, search, saved-listing and chat services behind a small REPL.
// Typical flow: restore the stored session, browse and filter listings, log
// in to save listings or start a chat with a seller.
//
// Key features:
//   - Register / Login / Logout, with session expiry reported as it happens
//   - Search with a debounced text query plus category, condition, price,
//     sort and page filters
//   - Save / Unsave / Toggle listings with optimistic updates
//   - Chat bootstrap for the hosted chat provider
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
