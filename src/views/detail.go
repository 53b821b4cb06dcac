package views

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"opsdesk/src/gateway"
)

const Placeholder = "N/A"

// Loader fetches one related sub-resource of a record.
type Loader func(ctx context.Context, id uint) (any, error)

// Section is a related sub-resource with its own load state.
type Section struct {
	machine
	Items any
}

type DetailView[T any] struct {
	machine
	entity   Entity[T]
	gw       Gateway[T]
	cache    *QueryCache
	viewer   Viewer
	loaders  map[string]Loader
	Item     *T
	NotFound bool
	Sections map[string]*Section

	fields map[string]any
}

func NewDetailView[T any](entity Entity[T], gw Gateway[T], cache *QueryCache, viewer Viewer, loaders map[string]Loader) *DetailView[T] {
	sections := make(map[string]*Section, len(loaders))
	for name := range loaders {
		sections[name] = &Section{}
	}
	return &DetailView[T]{
		entity:   entity,
		gw:       gw,
		cache:    cache,
		viewer:   viewer,
		loaders:  loaders,
		Sections: sections,
	}
}

func detailKey(id uint) string {
	return fmt.Sprintf("detail:%d", id)
}

// Load fetches the record and each section concurrently. A failing section
// does not fail the record.
func (v *DetailView[T]) Load(ctx context.Context, id uint) error {
	if !v.viewer.Can(v.entity.View) {
		return ErrDenied
	}
	if err := v.to(Loading, nil); err != nil {
		return err
	}
	var wg sync.WaitGroup
	for name, load := range v.loaders {
		section := v.Sections[name]
		if section.to(Loading, nil) != nil {
			continue
		}
		wg.Add(1)
		go func(s *Section, load Loader) {
			defer wg.Done()
			items, err := load(ctx, id)
			if err != nil {
				s.to(Failed, err)
				return
			}
			s.Items = items
			s.to(Loaded, nil)
		}(section, load)
	}
	err := v.fetch(ctx, id)
	wg.Wait()
	return err
}

func (v *DetailView[T]) fetch(ctx context.Context, id uint) error {
	item, err := v.read(ctx, id)
	if err != nil {
		v.NotFound = gateway.IsNotFound(err)
		v.Item = nil
		v.fields = nil
		v.to(Failed, err)
		return err
	}
	v.NotFound = false
	v.Item = item
	v.fields = fieldsOf(item)
	return v.to(Loaded, nil)
}

func (v *DetailView[T]) read(ctx context.Context, id uint) (*T, error) {
	if cached, ok := v.cache.Get(v.entity.Name, detailKey(id)); ok {
		return cached.(*T), nil
	}
	item, err := v.gw.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v.cache.Put(v.entity.Name, detailKey(id), item)
	return item, nil
}

// Field returns the display value of a field, or Placeholder when it is empty.
func (v *DetailView[T]) Field(name string) string {
	s := display(v.fields[name])
	if s == "" {
		return Placeholder
	}
	if name == "status" {
		return v.entity.normalizeStatus(s)
	}
	return s
}

func fieldsOf(item any) map[string]any {
	out := map[string]any{}
	b, err := json.Marshal(item)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := display(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
