// Package realtime provides the publish/subscribe change-notification bus
// used by every beacon component. Events are delivered synchronously to
// subscribers in the current process (loopback) and asynchronously to other
// processes sharing the same Redis instance through a pluggable Transport.
//
// Delivery is best-effort and fire-and-forget: no persistence, no replay,
// and no ordering guarantee across contexts. Consumers must treat every
// event purely as a "something changed, re-read the source of truth" signal,
// never as an authoritative ordered delta.
//
// All channels and keys are namespaced by instance name so multiple beacon
// instances can safely coexist on a single Redis server.
package realtime
