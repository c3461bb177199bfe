/*
Package session coordinates access to stored game logs.

A Manager wraps a ports.EventStore with per-game locks so that a game is only
ever driven by one writer, locally through ref-counted mutexes and across
replicas through an optional ports.DistributedLocker.
*/
package session
