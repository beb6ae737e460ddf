// Package dispatch routes generation requests across a pool of provider
// instances. It owns the instance registry with its per-instance usage
// counters, the selection strategies, admission control, and the retry and
// failover engine that drives each request to success or exhaustion.
//
// A Manager is built either programmatically through a Builder or from a
// configuration file via FromConfig. Requests run in three modes: one at a
// time, as a concurrent batch with positional results, or streamed.
package dispatch
