// Package tlsroots builds the TLS trust configuration of the API client:
// system roots plus an optional custom CA bundle (api.ca_file).
package tlsroots
