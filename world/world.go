// Package world holds the render-side entity data a frame graph reads:
// entities, their components, process-wide resources, and cached queries.
//
// A World is written during extraction and queueing and during node Update
// (exclusive access), and read during node Run (shared access). It performs
// no locking; the driver guarantees that Update never overlaps Run.
package world

import (
	"fmt"
	"reflect"
)

// Entity identifies a render-side entity. The zero Entity is never issued.
type Entity uint32

// String returns e.g. "Entity(3)".
func (e Entity) String() string { return fmt.Sprintf("Entity(%d)", uint32(e)) }

// World stores entities, components and resources.
type World struct {
	lastEntity Entity
	freeList   []Entity
	alive      map[Entity]struct{}
	stores     map[reflect.Type]store
	resources  map[reflect.Type]any

	// generation changes whenever the set of components carried by any
	// entity changes. Queries use it to decide whether to rebuild.
	generation uint64
}

// store is the type-erased view of a component storage.
type store interface {
	has(e Entity) bool
	remove(e Entity) bool
}

type componentStore[T any] struct {
	items map[Entity]*T
}

func (s *componentStore[T]) has(e Entity) bool {
	_, ok := s.items[e]
	return ok
}

func (s *componentStore[T]) remove(e Entity) bool {
	if _, ok := s.items[e]; !ok {
		return false
	}
	delete(s.items, e)
	return true
}

// New creates an empty world.
func New() *World {
	return &World{
		alive:     make(map[Entity]struct{}),
		stores:    make(map[reflect.Type]store),
		resources: make(map[reflect.Type]any),
	}
}

// Generation returns the structural generation counter.
func (w *World) Generation() uint64 { return w.generation }

// Spawn creates a new entity with no components.
func (w *World) Spawn() Entity {
	var e Entity
	if n := len(w.freeList); n > 0 {
		e = w.freeList[n-1]
		w.freeList = w.freeList[:n-1]
	} else {
		w.lastEntity++
		e = w.lastEntity
	}
	w.alive[e] = struct{}{}
	w.generation++
	return e
}

// Alive reports whether e exists.
func (w *World) Alive(e Entity) bool {
	_, ok := w.alive[e]
	return ok
}

// Despawn removes e and all of its components. Despawning a dead entity is a no-op.
func (w *World) Despawn(e Entity) {
	if _, ok := w.alive[e]; !ok {
		return
	}
	for _, s := range w.stores {
		s.remove(e)
	}
	delete(w.alive, e)
	w.freeList = append(w.freeList, e)
	w.generation++
}

// Len returns the number of live entities.
func (w *World) Len() int { return len(w.alive) }

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

func storeFor[T any](w *World) *componentStore[T] {
	t := typeOf[T]()
	if s, ok := w.stores[t]; ok {
		return s.(*componentStore[T])
	}
	s := &componentStore[T]{items: make(map[Entity]*T)}
	w.stores[t] = s
	return s
}

// Insert sets component c on e, replacing any previous value of type T.
// It panics if e is not alive.
func Insert[T any](w *World, e Entity, c T) {
	if !w.Alive(e) {
		panic(fmt.Sprintf("world: Insert %s on dead %v", typeOf[T](), e))
	}
	s := storeFor[T](w)
	if _, exists := s.items[e]; !exists {
		w.generation++
	}
	s.items[e] = &c
}

// Get returns e's component of type T.
func Get[T any](w *World, e Entity) (*T, bool) {
	s, ok := w.stores[typeOf[T]()]
	if !ok {
		return nil, false
	}
	c, ok := s.(*componentStore[T]).items[e]
	return c, ok
}

// Has reports whether e carries a component of type T.
func Has[T any](w *World, e Entity) bool {
	s, ok := w.stores[typeOf[T]()]
	return ok && s.has(e)
}

// Remove deletes e's component of type T, if present.
func Remove[T any](w *World, e Entity) {
	s, ok := w.stores[typeOf[T]()]
	if ok && s.remove(e) {
		w.generation++
	}
}

// Each calls fn for every entity carrying a component of type T.
// Iteration order is unspecified.
func Each[T any](w *World, fn func(Entity, *T)) {
	s, ok := w.stores[typeOf[T]()]
	if !ok {
		return
	}
	for e, c := range s.(*componentStore[T]).items {
		fn(e, c)
	}
}

// SetResource stores the process-wide resource of type T.
func SetResource[T any](w *World, r T) {
	w.resources[typeOf[T]()] = &r
}

// Resource returns the process-wide resource of type T.
func Resource[T any](w *World) (*T, bool) {
	r, ok := w.resources[typeOf[T]()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

// ResourceOr returns the resource of type T, or def when it is not set.
func ResourceOr[T any](w *World, def T) T {
	if r, ok := Resource[T](w); ok {
		return *r
	}
	return def
}
