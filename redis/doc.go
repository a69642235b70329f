// Package redis provides a Redis client wrapper built on go-redis with
// scribe logging and connection lifecycle support.
//
// It carries both of scribe's Redis roles: the transient job bookkeeping
// store (hash fields with per-key expiry) and the Celery broker/result
// backend transport (list push, key get).
package redis
