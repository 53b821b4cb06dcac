package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"

	"opsdesk/src/models"
	"opsdesk/src/types"
	"opsdesk/src/uploads"
)

const (
	ScopeAll  = "all"
	ScopeMine = "mine"
)

// ListQuery is the filter tuple of a list request.
type ListQuery struct {
	Page    int
	Limit   int
	Search  string
	Scope   string
	Filters map[string]string
}

// Values encodes q as a query string. Empty fields are left out.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Scope != "" {
		v.Set("scope", q.Scope)
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if q.Filters[k] != "" {
			v.Set(k, q.Filters[k])
		}
	}
	return v
}

// Key identifies q in a query cache.
func (q ListQuery) Key() string {
	return q.Values().Encode()
}

type Page[T any] = types.ListResponse[T]

// Upload is one file part of a multipart request.
type Upload struct {
	uploads.File
	Content io.Reader
}

// Resource is the gateway of one entity type, rooted at Path.
type Resource[T any] struct {
	Client *Client
	Path   string
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{Client: c, Path: path}
}

// PathOf is the path of record id, or of a sub-resource of it.
func (r *Resource[T]) PathOf(id uint, sub ...string) string {
	p := fmt.Sprintf("%s/%d", r.Path, id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}

func (r *Resource[T]) List(ctx context.Context, q ListQuery) (*Page[T], error) {
	var page Page[T]
	if err := r.Client.Do(ctx, http.MethodGet, r.Path, q.Values(), nil, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return &page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id uint) (*T, error) {
	var res envelope[T]
	if err := r.Client.Do(ctx, http.MethodGet, r.PathOf(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (r *Resource[T]) Create(ctx context.Context, payload any) (*T, error) {
	var res envelope[T]
	if err := r.Client.Do(ctx, http.MethodPost, r.Path, nil, payload, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// Update sends a partial update; only the keys present in payload change.
func (r *Resource[T]) Update(ctx context.Context, id uint, payload any) (*T, error) {
	var res envelope[T]
	if err := r.Client.Do(ctx, http.MethodPatch, r.PathOf(id), nil, payload, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id uint) error {
	return r.Client.Do(ctx, http.MethodDelete, r.PathOf(id), nil, nil, nil)
}

// Action calls a verb endpoint such as POST /assets/:id/assign and decodes the
// updated record.
func (r *Resource[T]) Action(ctx context.Context, method string, id uint, action string, payload any) (*T, error) {
	var res envelope[T]
	if err := r.Client.Do(ctx, method, r.PathOf(id, action), nil, payload, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// CreateMultipart creates a record from form fields and file parts. Files the
// server turns down come back in the rejected list.
func (r *Resource[T]) CreateMultipart(ctx context.Context, fields map[string]string, files []Upload) (*T, []types.RejectedFile, error) {
	var res envelope[T]
	if err := r.Client.PostMultipart(ctx, r.Path, fields, files, &res); err != nil {
		return nil, nil, err
	}
	return &res.Data, res.Rejected, nil
}

func (r *Resource[T]) ListAttachments(ctx context.Context, id uint) ([]models.Attachment, error) {
	return Related[models.Attachment](ctx, r.Client, r.PathOf(id, "attachments"))
}

func (r *Resource[T]) UploadAttachments(ctx context.Context, id uint, files []Upload) ([]models.Attachment, []types.RejectedFile, error) {
	var res envelope[[]models.Attachment]
	if err := r.Client.PostMultipart(ctx, r.PathOf(id, "attachments"), nil, files, &res); err != nil {
		return nil, nil, err
	}
	return res.Data, res.Rejected, nil
}

// DownloadAttachment copies the attachment content to w and returns its filename.
func (r *Resource[T]) DownloadAttachment(ctx context.Context, id uint, attachmentID uint, w io.Writer) (string, error) {
	path := r.PathOf(id, "attachments", strconv.FormatUint(uint64(attachmentID), 10))
	res, err := r.Client.Send(ctx, http.MethodGet, path, nil, "", nil)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if _, err := io.Copy(w, res.Body); err != nil {
		return "", err
	}
	filename := ""
	if _, params, err := mime.ParseMediaType(res.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return filename, nil
}

func (r *Resource[T]) DeleteAttachment(ctx context.Context, id uint, attachmentID uint) error {
	path := r.PathOf(id, "attachments", strconv.FormatUint(uint64(attachmentID), 10))
	return r.Client.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Call sends payload to path and decodes the "data" member of the reply.
func Call[S any](ctx context.Context, c *Client, method string, path string, payload any) (*S, error) {
	var res envelope[S]
	if err := c.Do(ctx, method, path, nil, payload, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// Related fetches the {"data": [...]} list at path.
func Related[S any](ctx context.Context, c *Client, path string) ([]S, error) {
	var res envelope[[]S]
	if err := c.Do(ctx, http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		res.Data = []S{}
	}
	return res.Data, nil
}

// PostMultipart sends fields and files parts to path and reads the reply into out.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []Upload, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return err
		}
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		h.Set("Content-Type", uploads.MimeType(f.Name, f.MimeType))
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("reading %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	res, err := c.Send(ctx, http.MethodPost, path, nil, w.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return readInto(res, out)
}

// Resources groups the entity gateways of one client.
type Resources struct {
	Bugs      *Resource[models.Bug]
	Projects  *Resource[models.Project]
	Employees *Resource[models.Employee]
	Assets    *Resource[models.Asset]
	Inventory *Resource[models.InventoryItem]
}

func (c *Client) Resources() Resources {
	return Resources{
		Bugs:      NewResource[models.Bug](c, "bugs"),
		Projects:  NewResource[models.Project](c, "projects"),
		Employees: NewResource[models.Employee](c, "employees"),
		Assets:    NewResource[models.Asset](c, "assets"),
		Inventory: NewResource[models.InventoryItem](c, "inventory"),
	}
}
