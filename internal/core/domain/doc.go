// Package domain defines the core domain models for the NDAify client.
//
// Domain models are plain value objects without IO dependencies:
//
//   - Nda: agreement snapshot and status filtering
//   - User: identity returned by the sessions endpoint
//   - APIKey: API key records
//   - TemplateID: owner/repo/ref/path template references
//   - ServiceError: the error taxonomy of remote failures
package domain
