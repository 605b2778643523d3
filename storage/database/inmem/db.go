// Package inmemdb holds map backed repositories used by tests and throwaway dev servers.
// Every table is guarded by its own mutex; multi-step operations are not serialized.
package inmemdb

import (
	"sort"
	"sync"

	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/core/workreturn"
)

type (
	table[T any] struct {
		rows  map[int64]*T
		pk    int64
		mutex sync.RWMutex
	}

	DB struct {
		identities  map[identity.Kind]*table[identity.Identity]
		assignments *table[assignment.Assignment]
		refs        map[assignment.Ref]*table[string]
		grades      *table[grade.Grade]
		workReturns *table[workreturn.WorkReturn]
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]*T)}
}

// insert stores row under the next primary key; setID receives the key.
func (t *table[T]) insert(row T, setID func(*T, int64)) T {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.pk++
	setID(&row, t.pk)
	t.rows[t.pk] = &row
	return row
}

func (t *table[T]) get(id int64) (T, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return *row, true
}

// query returns the rows matching keep, ordered by primary key.
func (t *table[T]) query(keep func(T) bool) []T {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	res := make([]T, 0, len(ids))
	for _, id := range ids {
		if row := *t.rows[id]; keep == nil || keep(row) {
			res = append(res, row)
		}
	}
	return res
}

func (t *table[T]) update(id int64, mutate func(*T)) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return false
	}
	mutate(row)
	return true
}

func (t *table[T]) delete(id int64) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.rows, id)
}

func Open() *DB {
	db := &DB{
		identities:  make(map[identity.Kind]*table[identity.Identity], len(identity.DefaultOrder)),
		assignments: newTable[assignment.Assignment](),
		refs:        make(map[assignment.Ref]*table[string]),
		grades:      newTable[grade.Grade](),
		workReturns: newTable[workreturn.WorkReturn](),
	}
	for _, kind := range identity.DefaultOrder {
		db.identities[kind] = newTable[identity.Identity]()
	}
	for _, ref := range []assignment.Ref{assignment.RefSubject, assignment.RefGroup, assignment.RefProgram} {
		db.refs[ref] = newTable[string]()
	}
	return db
}
