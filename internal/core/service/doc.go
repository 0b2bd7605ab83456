// Package service is the NDAify service façade.
//
// Client binds one method per API endpoint. Authenticated methods read the
// API key from a CredentialProvider right before each call; public
// endpoints are sent without a session. Mutations invalidate the cached
// collections they affect, and the Session, Ndas and APIKeys reads go
// through the response cache.
//
// ConfigureAPIKey stores a new key, probes it and, if the probe fails,
// applies a RecoveryPolicy chosen by the caller.
package service
