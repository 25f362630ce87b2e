// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datagrid

import (
	"fmt"
	"reflect"
	"sort"
)

// columnState holds the transforms active on one column. An entry with both
// pointers nil is removed from the state map; no empty entries persist.
type columnState struct {
	sort   *Transform
	filter *Transform
}

// TransformStateManager tracks the set of active transforms per column and
// enforces the composition rules: at most one sort exists across the whole
// state, filters are independent per column, and the executor pipeline is
// always filters (in column order) followed by the sort, regardless of the
// order transforms were added.
type TransformStateManager struct {
	state     map[SchemaIndex]*columnState
	listeners []func([]Transform)

	notifying bool
	pending   bool
}

// NewTransformStateManager creates an empty manager.
func NewTransformStateManager() *TransformStateManager {
	return &TransformStateManager{state: make(map[SchemaIndex]*columnState)}
}

// OnChange registers a listener invoked with the new active-transform
// snapshot after every state change. Listeners never observe partial state.
func (m *TransformStateManager) OnChange(fn func([]Transform)) {
	m.listeners = append(m.listeners, fn)
}

// notify delivers the current snapshot to every listener. A listener may
// mutate the manager re-entrantly (the fail-safe reset does); when that
// happens the stale delivery is abandoned and the loop restarts with a fresh
// snapshot, so no listener ever observes state the manager no longer holds.
func (m *TransformStateManager) notify() {
	if m.notifying {
		m.pending = true
		return
	}
	m.notifying = true
	defer func() { m.notifying = false }()

	for {
		m.pending = false
		snapshot := m.ActiveTransforms()
		for _, fn := range m.listeners {
			fn(snapshot)
			if m.pending {
				break
			}
		}
		if !m.pending {
			return
		}
	}
}

// add inserts or overwrites the entry for the transform's column without
// notifying. Adding a sort first clears every other column's sort.
func (m *TransformStateManager) add(t Transform) error {
	switch t.Type {
	case TransformSort:
		for col, entry := range m.state {
			if col == t.Column {
				continue
			}
			entry.sort = nil
			if entry.filter == nil {
				delete(m.state, col)
			}
		}
		spec := t
		m.entry(t.Column).sort = &spec
		return nil
	case TransformFilter:
		spec := t
		m.entry(t.Column).filter = &spec
		return nil
	default:
		// Fail safe, not fail fast: wipe everything rather than leave a
		// partially applied multi-column state behind.
		m.state = make(map[SchemaIndex]*columnState)
		return fmt.Errorf("%w: %d", ErrUnknownTransform, t.Type)
	}
}

func (m *TransformStateManager) entry(col SchemaIndex) *columnState {
	e, ok := m.state[col]
	if !ok {
		e = &columnState{}
		m.state[col] = e
	}
	return e
}

// Add inserts or overwrites one transform and notifies listeners. Adding a
// transform deeply equal to the column's existing entry is a no-op, with no
// rebuild and no notification.
func (m *TransformStateManager) Add(t Transform) error {
	if m.holds(t) {
		return nil
	}
	if err := m.add(t); err != nil {
		m.notify()
		return err
	}
	m.notify()
	return nil
}

// holds reports whether the column's entry already carries this exact spec.
func (m *TransformStateManager) holds(t Transform) bool {
	entry, ok := m.state[t.Column]
	if !ok {
		return false
	}
	switch t.Type {
	case TransformSort:
		return entry.sort != nil && reflect.DeepEqual(*entry.sort, t)
	case TransformFilter:
		return entry.filter != nil && reflect.DeepEqual(*entry.filter, t)
	default:
		return false
	}
}

// Replace rebuilds the state from scratch by folding Add over the given
// specs. It is a no-op, with no rebuild and no notification, when specs is
// deeply equal to the current active transform list.
func (m *TransformStateManager) Replace(specs []Transform) error {
	if reflect.DeepEqual(specs, m.ActiveTransforms()) {
		return nil
	}

	m.state = make(map[SchemaIndex]*columnState)
	for _, t := range specs {
		if err := m.add(t); err != nil {
			m.notify()
			return err
		}
	}
	m.notify()
	return nil
}

// Remove clears the named kind from a column's entry, deleting the entry
// entirely once both sort and filter are unset.
func (m *TransformStateManager) Remove(col SchemaIndex, kind TransformType) {
	entry, ok := m.state[col]
	if !ok {
		return
	}

	changed := false
	switch kind {
	case TransformSort:
		changed = entry.sort != nil
		entry.sort = nil
	case TransformFilter:
		changed = entry.filter != nil
		entry.filter = nil
	}
	if entry.sort == nil && entry.filter == nil {
		delete(m.state, col)
	}
	if changed {
		m.notify()
	}
}

// Clear empties all state.
func (m *TransformStateManager) Clear() {
	if len(m.state) == 0 {
		return
	}
	m.state = make(map[SchemaIndex]*columnState)
	m.notify()
}

// wipe empties all state without notifying. Used when the dataset itself is
// replaced and the facade drives its own reset notification.
func (m *TransformStateManager) wipe() {
	m.state = make(map[SchemaIndex]*columnState)
}

// columns returns the active column indices in ascending order.
func (m *TransformStateManager) columns() []SchemaIndex {
	cols := make([]SchemaIndex, 0, len(m.state))
	for col := range m.state {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}

// ActiveTransforms returns the flattened declarative list of active specs,
// in ascending column order with a column's sort before its filter. The
// snapshot round-trips through Replace.
func (m *TransformStateManager) ActiveTransforms() []Transform {
	var out []Transform
	for _, col := range m.columns() {
		entry := m.state[col]
		if entry.sort != nil {
			out = append(out, *entry.sort)
		}
		if entry.filter != nil {
			out = append(out, *entry.filter)
		}
	}
	return out
}

// executors builds the ordered executor pipeline for the current state: all
// filter executors first, in column order, then the single sort executor if
// any. This ordering is a hard contract independent of insertion order.
func (m *TransformStateManager) executors(view *View) ([]Executor, error) {
	var pipeline []Executor
	var sortExec Executor

	for _, col := range m.columns() {
		entry := m.state[col]
		field, err := view.fieldBySchemaIndex(col)
		if err != nil {
			return nil, err
		}
		if entry.filter != nil {
			pipeline = append(pipeline, newFilterExecutor(field, entry.filter.Operator, entry.filter.Value))
		}
		if entry.sort != nil {
			sortExec = newSortExecutor(field, entry.sort.Desc)
		}
	}
	if sortExec != nil {
		pipeline = append(pipeline, sortExec)
	}
	return pipeline, nil
}

// CreateView folds the executor pipeline over the original dataset and
// wraps the result in a new View. On any executor failure the whole state is
// wiped, never partially kept; the error is returned to the caller after the
// reset notification has gone out.
func (m *TransformStateManager) CreateView(schema *Schema, source *DataSource) (*View, error) {
	if source == nil {
		return nil, ErrNoDataSource
	}

	rows := make([]Record, source.Len())
	copy(rows, source.Records())

	// The pipeline needs field resolution before any rows move.
	pipeline, err := m.executors(NewView(schema, nil))
	if err == nil {
		for _, exec := range pipeline {
			rows, err = exec.Apply(schema, rows)
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		m.Clear()
		return nil, err
	}

	return NewView(schema, rows), nil
}
