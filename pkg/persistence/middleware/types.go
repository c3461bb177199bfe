package middleware

import "github.com/aretw0/clocktower/pkg/ports"

// Middleware allows wrapping an EventStore to add behavior.
type Middleware func(ports.EventStore) ports.EventStore

// Wrap applies mws to store. The first middleware is the outermost one.
func Wrap(store ports.EventStore, mws ...Middleware) ports.EventStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
