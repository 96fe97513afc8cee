// Package server exposes the file gateway over HTTP on two surfaces: an
// HTML interface guarded by a session cookie, and a JSON API under /api/v1
// guarded by the X-API-Key header. Both share one chi router, one access
// log and one set of metrics.
package server
