package views

import (
	"context"
	"errors"
	"sync"
)

var ErrNotRequested = errors.New("delete was not requested for this record")

// PendingDelete is a delete the user asked for but has not confirmed.
type PendingDelete struct {
	ID    uint
	Label string
}

// DeleteConfirmation deletes a record in two steps: Request then Confirm.
type DeleteConfirmation[T any] struct {
	machine
	entity  Entity[T]
	gw      Gateway[T]
	cache   *QueryCache
	viewer  Viewer
	reqMu   sync.Mutex
	pending *PendingDelete
}

func NewDeleteConfirmation[T any](entity Entity[T], gw Gateway[T], cache *QueryCache, viewer Viewer) *DeleteConfirmation[T] {
	d := &DeleteConfirmation[T]{entity: entity, gw: gw, cache: cache, viewer: viewer}
	d.to(Loaded, nil)
	return d
}

// Request asks for confirmation to delete id. It replaces any earlier request.
func (d *DeleteConfirmation[T]) Request(id uint, label string) (*PendingDelete, error) {
	if !d.viewer.Can(d.entity.Delete) {
		return nil, ErrDenied
	}
	d.reqMu.Lock()
	defer d.reqMu.Unlock()
	d.pending = &PendingDelete{ID: id, Label: label}
	return d.pending, nil
}

// Cancel drops the outstanding request.
func (d *DeleteConfirmation[T]) Cancel() {
	d.reqMu.Lock()
	defer d.reqMu.Unlock()
	d.pending = nil
}

// Confirm performs the delete p was issued for. p must be the latest request.
func (d *DeleteConfirmation[T]) Confirm(ctx context.Context, p *PendingDelete) error {
	d.reqMu.Lock()
	if p == nil || d.pending != p {
		d.reqMu.Unlock()
		return ErrNotRequested
	}
	d.pending = nil
	d.reqMu.Unlock()

	if err := d.to(Deleting, nil); err != nil {
		return err
	}
	if err := d.gw.Delete(ctx, p.ID); err != nil {
		d.to(Failed, err)
		return err
	}
	d.cache.Invalidate(d.entity.Name)
	return d.to(Removed, nil)
}
