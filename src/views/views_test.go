package views

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"opsdesk/src/gateway"
	"opsdesk/src/models"
	"opsdesk/src/types"
	"opsdesk/src/uploads"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memGateway is an in-memory Gateway that counts calls.
type memGateway[T any] struct {
	mu      sync.Mutex
	rows    map[uint]T
	calls   map[string]int
	idOf    func(T) uint
	build   func(id uint, payload map[string]any, cur *T) T
	summary map[string]int64
	failOn  map[string]error
	nextID  uint
	files   int
}

func newMemGateway[T any](idOf func(T) uint, build func(uint, map[string]any, *T) T) *memGateway[T] {
	return &memGateway[T]{rows: map[uint]T{}, calls: map[string]int{}, idOf: idOf, build: build, failOn: map[string]error{}, nextID: 1}
}

func (g *memGateway[T]) hit(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[op]++
	return g.failOn[op]
}

func (g *memGateway[T]) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *memGateway[T]) List(ctx context.Context, q gateway.ListQuery) (*gateway.Page[T], error) {
	if err := g.hit("list"); err != nil {
		return nil, err
	}
	page := &gateway.Page[T]{Data: []T{}, Summary: g.summary}
	for id := uint(1); id < g.nextID; id++ {
		if r, ok := g.rows[id]; ok {
			page.Data = append(page.Data, r)
		}
	}
	page.Pagination = types.NewPagination(1, 20, int64(len(page.Data)))
	return page, nil
}

func (g *memGateway[T]) Get(ctx context.Context, id uint) (*T, error) {
	if err := g.hit("get"); err != nil {
		return nil, err
	}
	r, ok := g.rows[id]
	if !ok {
		return nil, &gateway.APIError{Status: http.StatusNotFound, Message: "not found"}
	}
	return &r, nil
}

func (g *memGateway[T]) Create(ctx context.Context, payload any) (*T, error) {
	if err := g.hit("create"); err != nil {
		return nil, err
	}
	r := g.build(g.nextID, payload.(map[string]any), nil)
	g.rows[g.nextID] = r
	g.nextID++
	return &r, nil
}

func (g *memGateway[T]) Update(ctx context.Context, id uint, payload any) (*T, error) {
	if err := g.hit("update"); err != nil {
		return nil, err
	}
	cur, ok := g.rows[id]
	if !ok {
		return nil, &gateway.APIError{Status: http.StatusNotFound}
	}
	r := g.build(id, payload.(map[string]any), &cur)
	g.rows[id] = r
	return &r, nil
}

func (g *memGateway[T]) Delete(ctx context.Context, id uint) error {
	if err := g.hit("delete"); err != nil {
		return err
	}
	delete(g.rows, id)
	return nil
}

func (g *memGateway[T]) CreateMultipart(ctx context.Context, fields map[string]string, files []gateway.Upload) (*T, []types.RejectedFile, error) {
	if err := g.hit("create_multipart"); err != nil {
		return nil, nil, err
	}
	payload := map[string]any{}
	for k, v := range fields {
		payload[k] = v
	}
	r := g.build(g.nextID, payload, nil)
	g.rows[g.nextID] = r
	g.nextID++
	g.files += len(files)
	return &r, nil, nil
}

func (g *memGateway[T]) UploadAttachments(ctx context.Context, id uint, files []gateway.Upload) ([]models.Attachment, []types.RejectedFile, error) {
	if err := g.hit("upload"); err != nil {
		return nil, nil, err
	}
	g.files += len(files)
	return []models.Attachment{}, nil, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func bugGateway() *memGateway[models.Bug] {
	return newMemGateway(
		func(b models.Bug) uint { return b.ID },
		func(id uint, p map[string]any, cur *models.Bug) models.Bug {
			b := models.Bug{ID: id, Status: "Open"}
			if cur != nil {
				b = *cur
			}
			if v, ok := p["title"]; ok {
				b.Title = str(v)
			}
			if v, ok := p["description"]; ok {
				b.Description = str(v)
			}
			if v, ok := p["status"]; ok {
				b.Status = str(v)
			}
			if v, ok := p["assigned_to"].(uint); ok && v > 0 {
				b.AssignedTo = &v
			}
			return b
		},
	)
}

func projectGateway() *memGateway[models.Project] {
	return newMemGateway(
		func(p models.Project) uint { return p.ID },
		func(id uint, payload map[string]any, cur *models.Project) models.Project {
			p := models.Project{ID: id, Status: "Planning"}
			if cur != nil {
				p = *cur
			}
			if v, ok := payload["name"]; ok {
				p.Name = str(v)
			}
			if v, ok := payload["status"]; ok {
				p.Status = str(v)
			}
			return p
		},
	)
}

var (
	tester = NewViewer(2, "Tester")
	lead   = NewViewer(3, "Team Lead")
	admin  = NewViewer(1, "Admin")
)

func TestTesterNeverGetsDelete(t *testing.T) {
	gw := bugGateway()
	gw.rows[1] = models.Bug{ID: 1, Title: "a", Status: "Open"}
	gw.nextID = 2

	list := NewListView(Bugs, gw, NewQueryCache(time.Minute), tester)
	require.NoError(t, list.Load(context.Background(), gateway.ListQuery{}))
	require.Len(t, list.Rows, 1)
	assert.False(t, list.Rows[0].Can(ActionDelete))
	assert.True(t, list.Rows[0].Can(ActionEdit))
	assert.True(t, list.CanCreate())

	del := NewDeleteConfirmation(Bugs, gw, NewQueryCache(time.Minute), tester)
	_, err := del.Request(1, "BUG-000001")
	assert.ErrorIs(t, err, ErrDenied)
	assert.Zero(t, gw.calls["delete"])

	list = NewListView(Bugs, gw, NewQueryCache(time.Minute), lead)
	require.NoError(t, list.Load(context.Background(), gateway.ListQuery{}))
	assert.True(t, list.Rows[0].Can(ActionDelete))
}

func TestUnknownRoleSeesNothing(t *testing.T) {
	gw := bugGateway()
	list := NewListView(Bugs, gw, nil, NewViewer(9, "Superuser"))
	assert.ErrorIs(t, list.Load(context.Background(), gateway.ListQuery{}), ErrDenied)
	assert.Zero(t, gw.total())
}

func TestBlankRequiredFieldSendsNothing(t *testing.T) {
	gw := bugGateway()
	form := NewForm(Bugs, gw, NewQueryCache(time.Minute), tester)
	form.Set("title", "Crash on save")
	form.Set("description", "   ")

	_, err := form.Submit(context.Background())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"description"}, ve.Missing)
	assert.Equal(t, "Please fill in all required fields: Description", err.Error())
	assert.Zero(t, gw.total())
	assert.Equal(t, "Crash on save", form.Get("title"))
	assert.Equal(t, Loaded, form.State())
	assert.Equal(t, NoticeInvalid, Classify(err, "").Kind)
}

func TestBlur(t *testing.T) {
	form := NewForm(Bugs, bugGateway(), nil, tester)
	assert.Equal(t, "Title is required", form.Blur("title"))
	form.Set("assigned_to", "abc")
	assert.Equal(t, "Assigned to must be a number", form.Blur("assigned_to"))
	form.Set("assigned_to", "12")
	assert.Empty(t, form.Blur("assigned_to"))
}

func TestPayloadParsesRefsAndNormalizesStatus(t *testing.T) {
	form := NewForm(Projects, projectGateway(), nil, admin)
	form.Set("name", "Apollo")
	form.Set("status", "Development")
	form.Set("manager_id", " 4 ")
	form.Set("member_ids", "4, 7,")
	form.Set("progress", "35")

	p, err := form.Payload()
	require.NoError(t, err)
	assert.Equal(t, "In Progress", p["status"])
	assert.Equal(t, uint(4), p["manager_id"])
	assert.Equal(t, []uint{4, 7}, p["member_ids"])
	assert.Equal(t, float64(35), p["progress"])
}

func TestLegacyStatusIsNormalizedForDisplayAndSubmit(t *testing.T) {
	gw := projectGateway()
	gw.rows[1] = models.Project{ID: 1, Name: "Apollo", Status: "Development"}
	gw.nextID = 2
	cache := NewQueryCache(time.Minute)

	list := NewListView(Projects, gw, cache, admin)
	require.NoError(t, list.Load(context.Background(), gateway.ListQuery{}))
	assert.Equal(t, "In Progress", list.Rows[0].Status)

	detail := NewDetailView(Projects, gw, cache, admin, nil)
	require.NoError(t, detail.Load(context.Background(), 1))
	assert.Equal(t, "In Progress", detail.Field("status"))

	form := EditForm(Projects, gw, cache, admin)
	require.NoError(t, form.Load(context.Background(), 1))
	assert.Equal(t, "In Progress", form.Get("status"))
	p, err := form.Payload()
	require.NoError(t, err)
	assert.Equal(t, "In Progress", p["status"])
	_, hasName := p["name"]
	assert.False(t, hasName)
}

func TestUpdateIsVisibleOnNextRead(t *testing.T) {
	gw := bugGateway()
	gw.rows[1] = models.Bug{ID: 1, Title: "Old", Description: "d", Status: "Open"}
	gw.nextID = 2
	cache := NewQueryCache(time.Minute)

	detail := NewDetailView(Bugs, gw, cache, tester, nil)
	require.NoError(t, detail.Load(context.Background(), 1))
	assert.Equal(t, "Old", detail.Field("title"))

	require.NoError(t, detail.Load(context.Background(), 1))
	assert.Equal(t, 1, gw.calls["get"])

	form := EditForm(Bugs, gw, cache, tester)
	require.NoError(t, form.Load(context.Background(), 1))
	form.Set("title", "New")
	form.Set("status", "in progress")
	_, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls["update"])

	require.NoError(t, detail.Load(context.Background(), 1))
	assert.Equal(t, "New", detail.Field("title"))
	assert.Equal(t, "In Progress", detail.Field("status"))
}

func TestFailedUploadKeepsSavedFields(t *testing.T) {
	gw := bugGateway()
	gw.rows[1] = models.Bug{ID: 1, Title: "Old", Description: "d", Status: "Open"}
	gw.nextID = 2
	gw.failOn["upload"] = &gateway.APIError{Status: http.StatusServiceUnavailable}
	cache := NewQueryCache(time.Minute)

	detail := NewDetailView(Bugs, gw, cache, tester, nil)
	require.NoError(t, detail.Load(context.Background(), 1))
	assert.Equal(t, "Old", detail.Field("title"))

	form := EditForm(Bugs, gw, cache, tester)
	require.NoError(t, form.Load(context.Background(), 1))
	form.Set("title", "New")
	form.Attach(gateway.Upload{File: uploads.File{Name: "shot.png", MimeType: "image/png", Size: 10}, Content: strings.NewReader("x")})

	_, err := form.Submit(context.Background())
	assert.Equal(t, NoticeUnavailable, Classify(err, "").Kind)
	assert.Equal(t, Failed, form.State())
	assert.Equal(t, 1, gw.calls["update"])

	require.NoError(t, detail.Load(context.Background(), 1))
	assert.Equal(t, "New", detail.Field("title"))

	delete(gw.failOn, "upload")
	_, err = form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls["update"])
	assert.Equal(t, 2, gw.calls["upload"])
	assert.Equal(t, 1, gw.files)
	assert.Equal(t, Loaded, form.State())
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	gw := bugGateway()
	gw.rows[1] = models.Bug{ID: 1, Title: "a", Status: "Open"}
	gw.rows[2] = models.Bug{ID: 2, Title: "b", Status: "Open"}
	gw.nextID = 3
	cache := NewQueryCache(time.Minute)

	list := NewListView(Bugs, gw, cache, lead)
	require.NoError(t, list.Load(context.Background(), gateway.ListQuery{}))
	require.Len(t, list.Rows, 2)

	del := NewDeleteConfirmation(Bugs, gw, cache, lead)
	assert.ErrorIs(t, del.Confirm(context.Background(), &PendingDelete{ID: 1}), ErrNotRequested)
	assert.Zero(t, gw.calls["delete"])

	p, err := del.Request(1, "a")
	require.NoError(t, err)
	require.NoError(t, del.Confirm(context.Background(), p))
	assert.Equal(t, Removed, del.State())
	assert.ErrorIs(t, del.Confirm(context.Background(), p), ErrNotRequested)

	require.NoError(t, list.Load(context.Background(), gateway.ListQuery{}))
	require.Len(t, list.Rows, 1)
	assert.Equal(t, uint(2), list.Rows[0].ID)

	detail := NewDetailView(Bugs, gw, cache, lead, nil)
	assert.Error(t, detail.Load(context.Background(), 1))
	assert.True(t, detail.NotFound)
	assert.Equal(t, Failed, detail.State())
}

func TestFailedDeleteLeavesRecord(t *testing.T) {
	gw := bugGateway()
	gw.rows[1] = models.Bug{ID: 1, Title: "a", Status: "Open"}
	gw.nextID = 2
	gw.failOn["delete"] = &gateway.APIError{Status: http.StatusForbidden, Message: "access denied"}

	del := NewDeleteConfirmation(Bugs, gw, nil, admin)
	p, err := del.Request(1, "a")
	require.NoError(t, err)
	err = del.Confirm(context.Background(), p)
	assert.Equal(t, NoticeDenied, Classify(err, "").Kind)
	assert.Equal(t, Failed, del.State())
	assert.Contains(t, gw.rows, uint(1))
}

func TestAttachRejectsPerFile(t *testing.T) {
	gw := bugGateway()
	form := NewForm(Bugs, gw, nil, tester)
	form.Set("title", "t")
	form.Set("description", "d")
	rejected := form.Attach(
		gateway.Upload{File: uploads.File{Name: "shot.png", MimeType: "image/png", Size: 100}, Content: strings.NewReader("x")},
		gateway.Upload{File: uploads.File{Name: "dump.bin", MimeType: "application/octet-stream", Size: 100}, Content: strings.NewReader("x")},
		gateway.Upload{File: uploads.File{Name: "video.png", MimeType: "image/png", Size: 11 << 20}, Content: strings.NewReader("x")},
	)
	require.Len(t, rejected, 2)
	assert.Equal(t, "dump.bin", rejected[0].Filename)
	assert.Contains(t, rejected[1].Reason, "10MB")
	require.Len(t, form.Files(), 1)

	_, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls["create_multipart"])
	assert.Equal(t, 1, gw.files)
}

func TestSummaryPrefersServerTotals(t *testing.T) {
	gw := bugGateway()
	gw.rows[1] = models.Bug{ID: 1, Status: "Open"}
	gw.rows[2] = models.Bug{ID: 2, Status: "Resolved"}
	gw.nextID = 3

	list := NewListView(Bugs, gw, nil, admin)
	require.NoError(t, list.Load(context.Background(), gateway.ListQuery{}))
	assert.True(t, list.Summary.Partial)
	assert.Equal(t, map[string]int64{"Open": 1, "Fixed": 1}, list.Summary.Counts)

	gw.summary = map[string]int64{"Open": 40, "Fixed": 2}
	require.NoError(t, list.Load(context.Background(), gateway.ListQuery{Search: "x"}))
	assert.False(t, list.Summary.Partial)
	assert.Equal(t, int64(40), list.Summary.Counts["Open"])
}

func TestDetailSectionsLoadIndependently(t *testing.T) {
	gw := bugGateway()
	gw.rows[1] = models.Bug{ID: 1, Title: "a", Status: "Open"}
	gw.nextID = 2
	detail := NewDetailView(Bugs, gw, nil, admin, map[string]Loader{
		"attachments": func(ctx context.Context, id uint) (any, error) {
			return []models.Attachment{{ID: 4}}, nil
		},
		"comments": func(ctx context.Context, id uint) (any, error) {
			return nil, errors.New("boom")
		},
	})
	require.NoError(t, detail.Load(context.Background(), 1))
	assert.Equal(t, Loaded, detail.Sections["attachments"].State())
	assert.Equal(t, Failed, detail.Sections["comments"].State())
	assert.Equal(t, Placeholder, detail.Field("browser"))
	assert.Equal(t, "a", detail.Field("title"))
}

func TestCacheExpires(t *testing.T) {
	now := time.Now()
	c := NewQueryCache(time.Second)
	c.now = func() time.Time { return now }
	c.Put("bugs", "k", 1)
	_, ok := c.Get("bugs", "k")
	assert.True(t, ok)
	now = now.Add(2 * time.Second)
	_, ok = c.Get("bugs", "k")
	assert.False(t, ok)

	c.Put("bugs", "a", 1)
	c.Put("projects", "a", 1)
	c.Invalidate("bugs")
	assert.Equal(t, 1, c.Len())
}

func TestClassify(t *testing.T) {
	cases := map[int]NoticeKind{
		http.StatusUnauthorized:        NoticeLogin,
		http.StatusForbidden:           NoticeDenied,
		http.StatusNotFound:            NoticeNotFound,
		http.StatusServiceUnavailable:  NoticeUnavailable,
		http.StatusConflict:            NoticeError,
		http.StatusInternalServerError: NoticeError,
	}
	for status, kind := range cases {
		assert.Equal(t, kind, Classify(&gateway.APIError{Status: status}, "x").Kind, status)
	}
	n := Classify(&gateway.APIError{Status: http.StatusConflict, Message: "assets already exists"}, "Could not save")
	assert.Equal(t, "assets already exists", n.Message)
	assert.Equal(t, "Could not save", Classify(errors.New("dial tcp"), "Could not save").Message)
}
