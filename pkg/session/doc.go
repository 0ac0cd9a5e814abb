/*
Package session serializes access to journey sessions.

Events for one session are processed one at a time: every operation runs under a
per-session mutex, optionally backed by a distributed lock so that several replicas
sharing a store do not interleave updates to the same journey.
*/
package session
