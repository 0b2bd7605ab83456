// Package connection sends authenticated requests to the NDAify API.
//
//   - dispatcher.go: the Dispatcher (auth header, URL resolution, status
//     classification, session-error redirect, rate limiting, metrics)
//   - credential.go: stored API key vs. the NoSession sentinel
//   - query.go: GET payload to query string encoding
package connection
