package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"opsdesk/src/lib"
	awslib "opsdesk/src/lib/aws"
	"opsdesk/src/models"
	"opsdesk/src/models/scopes"
	"opsdesk/src/types"
	"opsdesk/src/uploads"
	"opsdesk/src/utils"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrValidation = errors.New("validation failed")

// HTTPError carries a reply status through gorm transactions.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

func badRequest(format string, args ...any) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: fmt.Sprintf("%s not found", entity)}
}

// statusOf maps err onto a reply status and a client-safe error.
func statusOf(entity string, err error) (int, error) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status, he
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, notFound(entity)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return http.StatusConflict, fmt.Errorf("%s already exists", entity)
	}
	log.Printf("[%s] Error: %s\n", entity, err.Error())
	return http.StatusInternalServerError, fmt.Errorf("could not process %s request", entity)
}

// bindJSON binds the body and folds validation failures into a single 400 message.
func bindJSON(ctx *gin.Context, body any) error {
	if err := ctx.ShouldBindJSON(body); err != nil {
		return badRequest("%s", utils.ValidationMessage(err))
	}
	return nil
}

func bind(ctx *gin.Context, body any) error {
	if err := ctx.ShouldBind(body); err != nil {
		return badRequest("%s", utils.ValidationMessage(err))
	}
	return nil
}

func bindID(ctx *gin.Context) (uint, error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return 0, badRequest("invalid id")
	}
	return params.ID, nil
}

func bindQuery(ctx *gin.Context, filters any, q *types.ListQuery) error {
	if err := ctx.ShouldBindQuery(filters); err != nil {
		return badRequest("%s", utils.ValidationMessage(err))
	}
	utils.NormalizeListQuery(q)
	return nil
}

// listPage counts, summarizes and fetches one page of base. base must return a
// fresh statement on every call.
func listPage[T any](base func() *gorm.DB, q types.ListQuery, withSummary bool) (*types.ListResponse[T], error) {
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, err
	}
	rows := []T{}
	if err := base().
		Order("id DESC").
		Scopes(scopes.Paginate(q.Page, q.Limit)).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	out := &types.ListResponse[T]{
		Data:       rows,
		Pagination: types.NewPagination(q.Page, q.Limit, total),
	}
	if withSummary {
		summary, err := summarize(base)
		if err != nil {
			return nil, err
		}
		out.Summary = summary
	}
	return out, nil
}

// summarize counts rows per status over the whole filtered set.
func summarize(base func() *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := base().
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).
		Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}

func collectIDs(ptrs ...*uint) []uint {
	seen := map[uint]bool{}
	ids := []uint{}
	for _, p := range ptrs {
		if p != nil && *p > 0 && !seen[*p] {
			seen[*p] = true
			ids = append(ids, *p)
		}
	}
	return ids
}

// lookupUsers loads display fields for ids in one query.
func lookupUsers(tx *gorm.DB, ids []uint) map[uint]models.User {
	out := map[uint]models.User{}
	if len(ids) == 0 {
		return out
	}
	var users []models.User
	if err := tx.
		Model(&models.User{}).
		Select("id", "name", "email").
		Scopes(scopes.WithIDs(ids...)).
		Find(&users).
		Error; err != nil {
		log.Printf("Error resolving users: %s\n", err.Error())
		return out
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

func userOf(users map[uint]models.User, id *uint) models.User {
	if id == nil {
		return models.User{}
	}
	return users[*id]
}

func cacheKey(ctx *gin.Context) string {
	return fmt.Sprintf("u%d:%s?%s", ctx.GetUint("id"), ctx.FullPath(), ctx.Request.URL.RawQuery)
}

// dependents lists, per entity, the entities whose cached reads embed its fields.
// Bugs show project and account names; projects and assets show account names.
var dependents = map[string][]string{
	projectsEntity:  {bugsEntity},
	employeesEntity: {bugsEntity, projectsEntity, assetsEntity},
}

// invalidationSet expands entities with their dependents, each listed once.
func invalidationSet(entities ...string) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(e string) {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	for _, e := range entities {
		add(e)
		for _, d := range dependents[e] {
			add(d)
		}
	}
	return out
}

func invalidate(ctx context.Context, entities ...string) {
	cache := lib.GetCache()
	for _, e := range invalidationSet(entities...) {
		cache.Invalidate(ctx, e)
	}
}

type storedFile struct {
	uploads.File
	Key string
}

// storeUploads applies the attachment policy to the request's "files" parts and
// writes accepted ones to the object store under prefix.
func storeUploads(ctx *gin.Context, prefix string) ([]storedFile, []types.RejectedFile, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, badRequest("invalid multipart payload")
	}
	store := awslib.GetObjectStore()
	stored := []storedFile{}
	rejected := []types.RejectedFile{}
	for _, fh := range form.File["files"] {
		f := uploads.File{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
		}
		if err := uploads.Check(f); err != nil {
			rejected = append(rejected, types.RejectedFile{Filename: f.Name, Reason: fmt.Sprintf("%s: %s", f.Name, err.Error())})
			continue
		}
		f.MimeType = uploads.MimeType(f.Name, f.MimeType)
		key := path.Join(prefix, uuid.NewString()+path.Ext(f.Name))
		src, err := fh.Open()
		if err != nil {
			return stored, rejected, err
		}
		err = store.Put(ctx.Request.Context(), key, f.MimeType, f.Size, src)
		src.Close()
		if err != nil {
			log.Printf("Error storing %s: %s\n", f.Name, err.Error())
			rejected = append(rejected, types.RejectedFile{Filename: f.Name, Reason: fmt.Sprintf("%s: could not be stored", f.Name)})
			continue
		}
		stored = append(stored, storedFile{File: f, Key: key})
	}
	return stored, rejected, nil
}

func removeObjects(ctx context.Context, keys ...string) {
	store := awslib.GetObjectStore()
	for _, k := range keys {
		if err := store.Delete(ctx, k); err != nil {
			log.Printf("Error removing object %s: %s\n", k, err.Error())
		}
	}
}

func failWith[T any](entity string, err error) (*T, int, error) {
	status, err := statusOf(entity, err)
	return nil, status, err
}

// nilIfZero treats a zero foreign key from form input as absent.
func nilIfZero(p *uint) *uint {
	if p == nil || *p == 0 {
		return nil
	}
	return p
}

func sameRef(a *uint, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// exists reports whether a live row of model has id.
func exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var n int64
	err := tx.Model(model).Scopes(scopes.WithID(id)).Count(&n).Error
	return n > 0, err
}

// track records a field change in changes when next differs from cur, then assigns it.
func track[T comparable](changes types.JSONB, field string, cur *T, next *T) {
	if next == nil || *cur == *next {
		return
	}
	changes[field] = types.JSONB{"from": *cur, "to": *next}
	*cur = *next
}

func trackRef(changes types.JSONB, field string, cur **uint, next *uint) {
	next = nilIfZero(next)
	if sameRef(*cur, next) {
		return
	}
	changes[field] = types.JSONB{"from": *cur, "to": next}
	*cur = next
}
