// Package views holds the console's list, detail, form and delete view models.
//
// Views talk to the API through a Gateway and share a QueryCache. A view never
// decides on its own what the user may do; gated actions come from the
// viewer's capability set.
package views

import (
	"context"
	"fmt"
	"sync"

	"opsdesk/src/gateway"
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/types"
)

type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Failed
	Submitting
	Deleting
	Removed
)

var stateNames = map[State]string{
	Unloaded:   "unloaded",
	Loading:    "loading",
	Loaded:     "loaded",
	Failed:     "error",
	Submitting: "submitting",
	Deleting:   "deleting",
	Removed:    "removed",
}

func (s State) String() string { return stateNames[s] }

var transitions = map[State][]State{
	Unloaded:   {Loading, Loaded},
	Loading:    {Loaded, Failed},
	Loaded:     {Loading, Submitting, Deleting},
	Failed:     {Loading, Submitting, Deleting},
	Submitting: {Loaded, Failed},
	Deleting:   {Removed, Failed},
}

// machine guards the state of one view instance.
type machine struct {
	mu    sync.Mutex
	state State
	err   error
}

func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err is the error of the last failed transition.
func (m *machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *machine) to(next State, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range transitions[m.state] {
		if s == next {
			m.state = next
			m.err = err
			return nil
		}
	}
	return fmt.Errorf("cannot move from %s to %s", m.state, next)
}

// Gateway is what the views need from a gateway.Resource.
type Gateway[T any] interface {
	List(ctx context.Context, q gateway.ListQuery) (*gateway.Page[T], error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, payload any) (*T, error)
	Update(ctx context.Context, id uint, payload any) (*T, error)
	Delete(ctx context.Context, id uint) error
	CreateMultipart(ctx context.Context, fields map[string]string, files []gateway.Upload) (*T, []types.RejectedFile, error)
	UploadAttachments(ctx context.Context, id uint, files []gateway.Upload) ([]models.Attachment, []types.RejectedFile, error)
}

// Viewer is the signed-in user as the views see it.
type Viewer struct {
	UserID uint
	Role   string
	Caps   permissions.Set
}

func NewViewer(userID uint, role string) Viewer {
	return Viewer{UserID: userID, Role: role, Caps: permissions.Resolve(role)}
}

func (v Viewer) Can(c permissions.Capability) bool {
	return v.Caps.Has(c)
}
