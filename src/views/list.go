package views

import (
	"context"

	"opsdesk/src/gateway"
	"opsdesk/src/types"
)

type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

type Row[T any] struct {
	ID      uint
	Item    T
	Status  string
	Actions []Action
}

func (r Row[T]) Can(a Action) bool {
	for _, v := range r.Actions {
		if v == a {
			return true
		}
	}
	return false
}

// Summary holds per-status totals. Partial is set when the counts come from the
// fetched page only.
type Summary struct {
	Counts  map[string]int64
	Partial bool
}

type ListView[T any] struct {
	machine
	entity  Entity[T]
	gw      Gateway[T]
	cache   *QueryCache
	viewer  Viewer
	Query   gateway.ListQuery
	Rows    []Row[T]
	Summary Summary
	Page    types.Pagination
}

func NewListView[T any](entity Entity[T], gw Gateway[T], cache *QueryCache, viewer Viewer) *ListView[T] {
	return &ListView[T]{entity: entity, gw: gw, cache: cache, viewer: viewer}
}

// CanCreate reports whether the create action is offered at all.
func (v *ListView[T]) CanCreate() bool {
	return v.viewer.Can(v.entity.Create)
}

// Load fetches the page for q, from the cache when a fresh copy exists.
func (v *ListView[T]) Load(ctx context.Context, q gateway.ListQuery) error {
	if !v.viewer.Can(v.entity.View) {
		return ErrDenied
	}
	if err := v.to(Loading, nil); err != nil {
		return err
	}
	v.Query = q
	key := "list:" + q.Key()
	if cached, ok := v.cache.Get(v.entity.Name, key); ok {
		v.fill(cached.(*gateway.Page[T]))
		return v.to(Loaded, nil)
	}
	page, err := v.gw.List(ctx, q)
	if err != nil {
		v.to(Failed, err)
		return err
	}
	v.cache.Put(v.entity.Name, key, page)
	v.fill(page)
	return v.to(Loaded, nil)
}

func (v *ListView[T]) fill(page *gateway.Page[T]) {
	actions := v.actions()
	v.Rows = make([]Row[T], 0, len(page.Data))
	for _, item := range page.Data {
		v.Rows = append(v.Rows, Row[T]{
			ID:      v.entity.ID(item),
			Item:    item,
			Status:  v.entity.normalizeStatus(v.entity.StatusOf(item)),
			Actions: actions,
		})
	}
	v.Page = page.Pagination
	if page.Summary != nil {
		v.Summary = Summary{Counts: map[string]int64{}}
		for k, n := range page.Summary {
			v.Summary.Counts[v.entity.normalizeStatus(k)] += n
		}
		return
	}
	v.Summary = Summary{Counts: map[string]int64{}, Partial: true}
	for _, r := range v.Rows {
		v.Summary.Counts[r.Status]++
	}
}

func (v *ListView[T]) actions() []Action {
	out := []Action{}
	if v.viewer.Can(v.entity.View) {
		out = append(out, ActionView)
	}
	if v.viewer.Can(v.entity.Edit) {
		out = append(out, ActionEdit)
	}
	if v.viewer.Can(v.entity.Delete) {
		out = append(out, ActionDelete)
	}
	return out
}
