// Package cli provides the interactive BoardPack desk command-line client.
//
// It wires configuration, the local staging store, the API client, the
// upload manager, and the signed-URL cache into an interactive REPL. Typical
// flow: log in, stage documents for an application, push them to the server
// with upload, and watch the application's event stream while the board
// reviews.
//
// Key features:
//   - Login / Logout against the BoardPack API
//   - Stage files locally (capacity-limited sqlite store)
//   - Upload staged files through presigned URLs with pause/resume
//   - Fetch presigned download links through the signed-URL cache
//   - Tail an application's realtime events (status, documents, messages)
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
