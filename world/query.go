package world

import (
	"reflect"
	"slices"
	"strings"
)

// Term is one component requirement of a Query.
type Term struct {
	typ reflect.Type
	has func(w *World, e Entity) bool
}

// With requires entities to carry a component of type T.
func With[T any]() Term {
	return Term{typ: typeOf[T](), has: Has[T]}
}

// Query is a cached set of entities carrying all required components.
//
// A Query is owned by the node that created it. Update rebuilds the set
// only when the world's generation has changed since the last rebuild, so
// steady-state frames pay nothing. Between updates the set may be stale;
// callers still fetch components with Get and treat a miss as "no data".
type Query struct {
	terms      []Term
	generation uint64
	built      bool
	matches    map[Entity]struct{}
	order      []Entity
}

// NewQuery creates a query over terms and builds it against w.
func NewQuery(w *World, terms ...Term) *Query {
	q := &Query{terms: terms, matches: make(map[Entity]struct{})}
	q.Update(w)
	return q
}

// Update refreshes the cached match set if the world changed.
// It reports whether a rebuild happened.
func (q *Query) Update(w *World) bool {
	if q.built && q.generation == w.generation {
		return false
	}
	clear(q.matches)
	q.order = q.order[:0]
	for e := range w.alive {
		if q.matchesEntity(w, e) {
			q.matches[e] = struct{}{}
			q.order = append(q.order, e)
		}
	}
	slices.Sort(q.order)
	q.generation = w.generation
	q.built = true
	return true
}

func (q *Query) matchesEntity(w *World, e Entity) bool {
	for _, t := range q.terms {
		if !t.has(w, e) {
			return false
		}
	}
	return true
}

// Contains reports whether e matched at the last Update.
func (q *Query) Contains(e Entity) bool {
	_, ok := q.matches[e]
	return ok
}

// Entities returns the matching entities in ascending order.
// The slice is owned by the query and valid until the next Update.
func (q *Query) Entities() []Entity { return q.order }

// Len returns the number of matching entities.
func (q *Query) Len() int { return len(q.order) }

// Stale reports whether the world changed since the last Update.
func (q *Query) Stale(w *World) bool {
	return !q.built || q.generation != w.generation
}

// String lists the required component types.
func (q *Query) String() string {
	names := make([]string, len(q.terms))
	for i, t := range q.terms {
		names[i] = t.typ.String()
	}
	return "Query(" + strings.Join(names, ", ") + ")"
}
