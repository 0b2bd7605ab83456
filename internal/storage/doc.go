// Package storage persists client settings, most importantly the API key.
//
// Settings are kept in an embedded key-value Store. BadgerEngine is the
// on-disk implementation used by the CLI; MemoryStore backs tests. Values
// can be sealed at rest with ChaCha20-Poly1305 when store.encryption_key is
// configured.
package storage
