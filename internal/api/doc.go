// Package api implements the HTTP control surface of driveshare-core.
//
// It exposes:
//   - drive (tab) CRUD backed by SQLite
//   - dataserv-client commands: farm, build, set address, register, poll
//   - the live process registry, with terminate
//   - per-process output and run history
//   - a WebSocket relay of process_output events from the IPC bus
//   - the audit trail of operator actions
//
// # Security
//
// When security.jwt.secret is set, every route except /health requires a
// bearer token minted with `driveshare token`. Viewers may read; operators
// may also start and stop processes, edit drives and read the audit trail. WebSocket clients
// authenticate with a single-use ticket from POST /auth/ws-ticket so the
// token never appears in a URL. With an empty secret the API is open and
// should only listen on localhost.
package api
