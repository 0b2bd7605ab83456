// Package buildinfo exposes version information injected via ldflags and
// derives the User-Agent of API requests from it.
package buildinfo
