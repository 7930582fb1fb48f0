// Package eventx routes tagged events to statically registered handlers.
//
// A Router is built once from a list of registrations and is immutable
// afterwards, so it can be shared freely between goroutines. Each
// registration names the single topic it subscribes to and carries its own
// projection from the event union to the concrete payload the handler wants.
package eventx

import (
	"context"
	"errors"
	"fmt"
)

// Registration binds a handler to a topic. The zero value subscribes to
// nothing and is never invoked.
type Registration[K comparable, E any, S any] struct {
	name   string
	topic  K
	routed bool
	invoke func(ctx context.Context, state S, event E) error
}

// Handle creates a registration that invokes handler for events whose topic
// is topic. project narrows the event to the handler's payload type; if it
// reports false for an event carrying topic the registration is wired
// incorrectly and Dispatch panics.
func Handle[K comparable, E any, S any, P any](
	name string,
	topic K,
	project func(E) (P, bool),
	handler func(ctx context.Context, state S, payload P) error,
) Registration[K, E, S] {
	return Registration[K, E, S]{
		name:   name,
		topic:  topic,
		routed: true,
		invoke: func(ctx context.Context, state S, event E) error {
			payload, ok := project(event)
			if !ok {
				panic(fmt.Sprintf("eventx: handler %q cannot project event on topic %v", name, topic))
			}
			return handler(ctx, state, payload)
		},
	}
}

// Name returns the name the registration was created with.
func (r Registration[K, E, S]) Name() string { return r.name }

// Topic returns the subscribed topic and whether there is one.
func (r Registration[K, E, S]) Topic() (K, bool) { return r.topic, r.routed }

type Router[K comparable, E any, S any] struct {
	state   S
	topicOf func(E) K
	routes  map[K][]Registration[K, E, S]
}

// New builds a router over regs. Handlers for the same topic run in the order
// given. topicOf extracts the routing key from an event.
func New[K comparable, E any, S any](state S, topicOf func(E) K, regs ...Registration[K, E, S]) *Router[K, E, S] {
	routes := make(map[K][]Registration[K, E, S])
	for _, reg := range regs {
		if !reg.routed {
			continue
		}
		routes[reg.topic] = append(routes[reg.topic], reg)
	}

	return &Router[K, E, S]{
		state:   state,
		topicOf: topicOf,
		routes:  routes,
	}
}

// Dispatch runs every handler subscribed to the event's topic, one after
// another. A failing handler does not stop the rest; all failures are joined
// into the returned error. An event with no subscribers is a no-op.
func (r *Router[K, E, S]) Dispatch(ctx context.Context, event E) error {
	topic := r.topicOf(event)

	var errs []error
	for _, reg := range r.routes[topic] {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := reg.invoke(ctx, r.state, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reg.name, err))
		}
	}

	return errors.Join(errs...)
}

// Subscribers reports how many handlers are registered for topic.
func (r *Router[K, E, S]) Subscribers(topic K) int {
	return len(r.routes[topic])
}
