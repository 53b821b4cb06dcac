package views

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"opsdesk/src/gateway"
	"opsdesk/src/types"
	"opsdesk/src/uploads"
)

// ValidationError aggregates every problem found in a form into one message.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Error() string {
	parts := []string{}
	if len(e.Missing) > 0 {
		labels := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			labels[i] = Label(f)
		}
		parts = append(parts, "Please fill in all required fields: "+strings.Join(labels, ", "))
	}
	fields := make([]string, 0, len(e.Invalid))
	for f := range e.Invalid {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		parts = append(parts, e.Invalid[f])
	}
	return strings.Join(parts, ". ")
}

// Label turns a field key into a display label.
func Label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	s = strings.TrimSuffix(s, " id")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Form is the create or edit form of one record. ID is zero while creating.
type Form[T any] struct {
	machine
	entity   Entity[T]
	gw       Gateway[T]
	cache    *QueryCache
	viewer   Viewer
	ID       uint
	values   map[string]string
	initial  map[string]string
	files    []gateway.Upload
	Rejected []types.RejectedFile
	Result   *T
}

// NewForm returns an empty create form.
func NewForm[T any](entity Entity[T], gw Gateway[T], cache *QueryCache, viewer Viewer) *Form[T] {
	f := &Form[T]{
		entity:  entity,
		gw:      gw,
		cache:   cache,
		viewer:  viewer,
		values:  map[string]string{},
		initial: map[string]string{},
	}
	f.to(Loaded, nil)
	return f
}

// EditForm returns a form that must be loaded with Load before use.
func EditForm[T any](entity Entity[T], gw Gateway[T], cache *QueryCache, viewer Viewer) *Form[T] {
	return &Form[T]{
		entity:  entity,
		gw:      gw,
		cache:   cache,
		viewer:  viewer,
		values:  map[string]string{},
		initial: map[string]string{},
	}
}

// Load fetches the record and populates the form with it.
func (f *Form[T]) Load(ctx context.Context, id uint) error {
	if !f.viewer.Can(f.entity.Edit) {
		return ErrDenied
	}
	if err := f.to(Loading, nil); err != nil {
		return err
	}
	item, err := f.gw.Get(ctx, id)
	if err != nil {
		f.to(Failed, err)
		return err
	}
	f.ID = id
	f.Populate(*item)
	return f.to(Loaded, nil)
}

// Populate replaces the form state with item. Status is shown normalized.
func (f *Form[T]) Populate(item T) {
	f.values = map[string]string{}
	f.initial = map[string]string{}
	for k, v := range fieldsOf(item) {
		s, ok := formValue(v)
		if !ok {
			continue
		}
		if f.entity.kindOf(k) == "date" && len(s) >= 10 {
			s = s[:10]
		}
		f.initial[k] = s
		if k == "status" && s != "" {
			s = f.entity.normalizeStatus(s)
		}
		f.values[k] = s
	}
}

func formValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string, float64, bool:
		return display(t), true
	case []any:
		for _, e := range t {
			if _, ok := e.(float64); !ok {
				return "", false
			}
		}
		return display(t), true
	}
	return "", false
}

func (f *Form[T]) Set(field string, value string) {
	f.values[field] = value
}

func (f *Form[T]) Get(field string) string {
	return f.values[field]
}

func (f *Form[T]) required() []string {
	if f.ID == 0 {
		return append(append([]string{}, f.entity.Required...), f.entity.CreateRequired...)
	}
	return f.entity.Required
}

// Validate checks required fields and numeric input without touching the network.
func (f *Form[T]) Validate() error {
	ve := &ValidationError{Invalid: map[string]string{}}
	for _, field := range f.required() {
		if strings.TrimSpace(f.values[field]) == "" {
			ve.Missing = append(ve.Missing, field)
		}
	}
	for field := range f.values {
		if msg := f.checkFormat(field); msg != "" {
			ve.Invalid[field] = msg
		}
	}
	if len(ve.Missing) == 0 && len(ve.Invalid) == 0 {
		return nil
	}
	return ve
}

// Blur returns the error of a single field, or "" when it is fine.
func (f *Form[T]) Blur(field string) string {
	if contains(f.required(), field) && strings.TrimSpace(f.values[field]) == "" {
		return Label(field) + " is required"
	}
	return f.checkFormat(field)
}

func (f *Form[T]) checkFormat(field string) string {
	raw := strings.TrimSpace(f.values[field])
	if raw == "" {
		return ""
	}
	switch f.entity.kindOf(field) {
	case "ref":
		if _, err := parseRef(raw); err != nil {
			return Label(field) + " must be a number"
		}
	case "number":
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return Label(field) + " must be a number"
		}
	case "list":
		if _, err := parseList(raw); err != nil {
			return Label(field) + " must be a list of numbers"
		}
	}
	return ""
}

func parseRef(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return uint(n), err
}

func parseList(s string) ([]uint, error) {
	out := []uint{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n, err := parseRef(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// changed lists the fields to send: every non-blank field on create, the
// edited fields on update.
func (f *Form[T]) changed() []string {
	out := []string{}
	for k, v := range f.values {
		if f.ID == 0 {
			if strings.TrimSpace(v) != "" {
				out = append(out, k)
			}
			continue
		}
		if v != f.initial[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Payload converts the form state into request values. Foreign keys are parsed
// to numbers and status is normalized. A cleared foreign key is sent as 0.
func (f *Form[T]) Payload() (map[string]any, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := map[string]any{}
	for _, k := range f.changed() {
		raw := strings.TrimSpace(f.values[k])
		switch f.entity.kindOf(k) {
		case "ref":
			n := uint(0)
			if raw != "" {
				n, _ = parseRef(raw)
			}
			out[k] = n
		case "number":
			if raw == "" {
				continue
			}
			n, _ := strconv.ParseFloat(raw, 64)
			out[k] = n
		case "list":
			out[k], _ = parseList(raw)
		case "date":
			if raw == "" {
				continue
			}
			out[k] = raw
		default:
			if k == "status" {
				raw = f.entity.normalizeStatus(raw)
			}
			out[k] = raw
		}
	}
	return out, nil
}

// Attach screens files against the upload policy. Accepted files are kept for
// Submit; the rejected ones are returned with a reason each.
func (f *Form[T]) Attach(files ...gateway.Upload) []types.RejectedFile {
	rejected := []types.RejectedFile{}
	for _, u := range files {
		if err := uploads.Check(u.File); err != nil {
			rejected = append(rejected, types.RejectedFile{
				Filename: u.Name,
				Reason:   fmt.Sprintf("%s: %s", u.Name, err.Error()),
			})
			continue
		}
		u.MimeType = uploads.MimeType(u.Name, u.MimeType)
		f.files = append(f.files, u)
	}
	f.Rejected = append(f.Rejected, rejected...)
	return rejected
}

func (f *Form[T]) Files() []gateway.Upload {
	return f.files
}

// Submit validates and sends the form. Nothing is sent when validation fails,
// and the form keeps its values on any failure.
func (f *Form[T]) Submit(ctx context.Context) (*T, error) {
	need := f.entity.Create
	if f.ID != 0 {
		need = f.entity.Edit
	}
	if !f.viewer.Can(need) {
		return nil, ErrDenied
	}
	payload, err := f.Payload()
	if err != nil {
		return nil, err
	}
	if err := f.to(Submitting, nil); err != nil {
		return nil, err
	}
	var (
		item     *T
		rejected []types.RejectedFile
		upload   = f.ID != 0 && len(f.files) > 0
	)
	switch {
	case f.ID == 0 && len(f.files) > 0:
		item, rejected, err = f.gw.CreateMultipart(ctx, multipartFields(payload), f.files)
	case f.ID == 0:
		item, err = f.gw.Create(ctx, payload)
	case upload && len(payload) == 0 && f.Result != nil:
		// Fields were saved by an earlier submit; only the files are left.
		item = f.Result
	default:
		item, err = f.gw.Update(ctx, f.ID, payload)
	}
	if err != nil {
		f.to(Failed, err)
		return nil, err
	}
	f.accept(item)
	if upload {
		_, rejected, err = f.gw.UploadAttachments(ctx, f.ID, f.files)
		if err != nil {
			f.to(Failed, err)
			return item, err
		}
	}
	f.Rejected = append(f.Rejected, rejected...)
	f.files = nil
	return item, f.to(Loaded, nil)
}

// accept records a saved record. Cached reads of the entity are dropped at once
// so a later failure cannot leave them stale.
func (f *Form[T]) accept(item *T) {
	f.cache.Invalidate(f.entity.Name)
	f.Result = item
	f.ID = f.entity.ID(*item)
	f.Populate(*item)
}

func multipartFields(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		switch t := v.(type) {
		case string:
			out[k] = t
		case uint:
			if t > 0 {
				out[k] = strconv.FormatUint(uint64(t), 10)
			}
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case []uint:
			parts := make([]string, len(t))
			for i, n := range t {
				parts[i] = strconv.FormatUint(uint64(n), 10)
			}
			out[k] = strings.Join(parts, ",")
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}
