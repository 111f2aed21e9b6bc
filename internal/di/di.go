// Package di provides a small, typed dependency injection container.
//
// Services are registered as lazy factories and resolved once; later
// lookups return the same instance.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container is a ServiceRegistry that accepts registrations.
type Container interface {
	ServiceRegistry
	Register(name string, instance any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
	Has(name string) bool
}

type entry struct {
	factory  func(ServiceRegistry) any
	instance any
	resolved bool
}

type container struct {
	mu        sync.Mutex
	entries   map[string]*entry
	resolving map[string]bool
}

// NewContainer creates an empty Container.
func NewContainer() Container {
	return &container{
		entries:   make(map[string]*entry),
		resolving: make(map[string]bool),
	}
}

// Register stores an already-built instance.
func (c *container) Register(name string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{instance: instance, resolved: true}
}

// RegisterFactory stores a factory that is invoked on first Get.
func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{factory: factory}
}

// Has reports whether name is registered.
func (c *container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[name]
	return ok
}

// Get resolves name, panicking when it is unknown or part of a cycle.
func (c *container) Get(name string) any {
	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: service %q not registered", name))
	}
	if e.resolved {
		inst := e.instance
		c.mu.Unlock()
		return inst
	}
	if c.resolving[name] {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: dependency cycle resolving %q", name))
	}
	c.resolving[name] = true
	c.mu.Unlock()

	// Factories may resolve other services, so run them unlocked.
	inst := e.factory(c)

	c.mu.Lock()
	delete(c.resolving, name)
	e.instance = inst
	e.resolved = true
	c.mu.Unlock()

	return inst
}

// Token is a typed service key.
type Token[T any] struct {
	name string
}

// NewToken creates a Token for services of type T.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key of the token.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory under tok.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves tok with its static type.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	v, ok := sr.Get(tok.name).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", tok.name))
	}
	return v
}
