// Package cache holds API responses in memory.
//
// Entries are keyed by structured keys such as Key{"ndas"} or
// Key{"ndas", id}; invalidating a key also drops every key it covers.
// Storage is sharded by murmur3 hash and each Cache belongs to a Manager,
// whose ClearAll ends a session.
package cache
