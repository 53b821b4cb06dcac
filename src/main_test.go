package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"opsdesk/src/boot"
	"opsdesk/src/config"
	"opsdesk/src/db"
	awslib "opsdesk/src/lib/aws"
	"opsdesk/src/models"
	"opsdesk/src/utils"
	"os"
	"path"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type TestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Router *gin.Engine
	Dir    string

	Admin  models.User
	Tester models.User
	Tokens map[string]string
}

type upload struct {
	Name        string
	ContentType string
	Content     []byte
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")
	os.Unsetenv("MAINTENANCE_MODE")
	os.Unsetenv("REDIS_HOST")
	config.MAIL_DRIVER = "log"
	config.EMAIL_QUEUE = ""
	config.KAFKA_BROKER = ""
	config.BUG_EVENTS_TOPIC_ARN = ""
	registerValidators()

	s.Dir = s.T().TempDir()
	dsn := path.Join(s.Dir, "opsdesk.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	db.NewDB(d)
	s.DB = d
	awslib.NewObjectStore(&awslib.DiskStore{Root: path.Join(s.Dir, "uploads")})

	require.NoError(s.T(), boot.Migrate(d))
	require.NoError(s.T(), boot.SeedPermissions(d))

	s.Tokens = map[string]string{}
	s.Admin = s.createUser("Ada Admin", "admin@example.com", "Admin")
	s.Tester = s.createUser("Tess Tester", "tester@example.com", "Tester")
	s.Router = setupRouter()
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) createUser(name string, email string, role string) models.User {
	hash, err := utils.HashPassword("correct horse")
	require.NoError(s.T(), err)
	user := models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	require.NoError(s.T(), s.DB.Create(&user).Error)
	token, _, err := utils.GenerateJWT(&user)
	require.NoError(s.T(), err)
	s.Tokens[role] = token
	return user
}

func (s *TestSuite) do(role string, method string, url string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token, ok := s.Tokens[role]; ok {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) multipart(role string, url string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, f.Name))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		require.NoError(s.T(), err)
		part.Write(f.Content)
	}
	require.NoError(s.T(), mw.Close())
	req, _ := http.NewRequest(http.MethodPost, url, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Tokens[role]))
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) createBug(role string, title string, extra map[string]any) uint {
	body := map[string]any{"title": title, "description": "steps inside"}
	for k, v := range extra {
		body[k] = v
	}
	w := s.do(role, http.MethodPost, "/api/v1/bugs", body)
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	return uint(gjson.Get(w.Body.String(), "data.id").Uint())
}

func (s *TestSuite) TestPingRoute() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	w := s.do("Admin", http.MethodGet, "/api/v1/bugs", nil)
	assert.Equal(s.T(), 503, w.Code)
	assert.Equal(s.T(), "server is under maintenance", gjson.Get(w.Body.String(), "error").String())
}

func (s *TestSuite) TestAuthRoutes() {
	s.Run("Should reject a wrong password", func() {
		w := s.do("", http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "tester@example.com", "password": "nope"})
		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
		assert.Equal(s.T(), "invalid email or password", gjson.Get(w.Body.String(), "error").String())
	})

	s.Run("Should issue a token with capabilities", func() {
		w := s.do("", http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "Tester@Example.com", "password": "correct horse"})
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		res := gjson.Parse(w.Body.String())
		assert.NotEmpty(s.T(), res.Get("data.token").String())
		assert.Equal(s.T(), "Tester", res.Get("data.user.role").String())
		assert.False(s.T(), res.Get("data.user.password_hash").Exists())
		caps := []string{}
		for _, c := range res.Get("data.capabilities").Array() {
			caps = append(caps, c.String())
		}
		assert.Contains(s.T(), caps, "bugs.create")
		assert.NotContains(s.T(), caps, "bugs.delete")
	})

	s.Run("Should require a token", func() {
		w := s.do("", http.MethodGet, "/api/v1/bugs", nil)
		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
		assert.Equal(s.T(), "authentication required", gjson.Get(w.Body.String(), "error").String())
	})

	s.Run("Should describe the session", func() {
		w := s.do("Tester", http.MethodGet, "/api/v1/auth/me", nil)
		require.Equal(s.T(), http.StatusOK, w.Code)
		assert.Equal(s.T(), "tester@example.com", gjson.Get(w.Body.String(), "data.user.email").String())
	})
}

func (s *TestSuite) TestLogoutRevokesToken() {
	s.createUser("Eve Employee", "employee@example.com", "Employee")

	w := s.do("Employee", http.MethodGet, "/api/v1/bugs", nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do("Employee", http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(s.T(), http.StatusNoContent, w.Code, w.Body.String())

	w = s.do("Employee", http.MethodGet, "/api/v1/bugs", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "session expired", gjson.Get(w.Body.String(), "error").String())
}

func (s *TestSuite) TestBugValidation() {
	w := s.do("Tester", http.MethodPost, "/api/v1/bugs", map[string]any{"severity": "Apocalyptic"})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	msg := gjson.Get(w.Body.String(), "error").String()
	assert.Contains(s.T(), msg, "title is required")
	assert.Contains(s.T(), msg, "description is required")
	assert.Contains(s.T(), msg, "severity must be one of")
}

func (s *TestSuite) TestTesterCannotDeleteBugs() {
	id := s.createBug("Tester", "Save button does nothing", nil)
	url := fmt.Sprintf("/api/v1/bugs/%d", id)

	w := s.do("Tester", http.MethodDelete, url, nil)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)
	assert.Equal(s.T(), "access denied", gjson.Get(w.Body.String(), "error").String())

	w = s.do("Tester", http.MethodGet, url, nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *TestSuite) TestTesterCannotAssign() {
	w := s.do("Tester", http.MethodPost, "/api/v1/bugs", map[string]any{
		"title": "Assign me", "description": "x", "assigned_to": s.Admin.ID,
	})
	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *TestSuite) TestBugLifecycle() {
	id := s.createBug("Admin", "Crash on export", map[string]any{"severity": "Critical", "assigned_to": s.Tester.ID})
	url := fmt.Sprintf("/api/v1/bugs/%d", id)

	w := s.do("Admin", http.MethodGet, url, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	res := gjson.Parse(w.Body.String())
	assert.Equal(s.T(), fmt.Sprintf("BUG-%06d", id), res.Get("data.bug_code").String())
	assert.Equal(s.T(), "Open", res.Get("data.status").String())
	assert.Equal(s.T(), "Tess Tester", res.Get("data.assigned_to_name").String())

	s.Run("Should reflect an update on the next read", func() {
		w := s.do("Tester", http.MethodPatch, url, map[string]any{"status": "Resolved", "resolution_type": "Fixed", "title": "Crash on CSV export"})
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

		w = s.do("Tester", http.MethodGet, url, nil)
		res := gjson.Parse(w.Body.String())
		assert.Equal(s.T(), "Fixed", res.Get("data.status").String())
		assert.Equal(s.T(), "Crash on CSV export", res.Get("data.title").String())
		assert.NotEmpty(s.T(), res.Get("data.actual_fix_date").String())
	})

	s.Run("Should count reopenings", func() {
		w := s.do("Tester", http.MethodPatch, url, map[string]any{"status": "Re-opened"})
		require.Equal(s.T(), http.StatusOK, w.Code)
		res := gjson.Parse(w.Body.String())
		assert.Equal(s.T(), "Reopened", res.Get("data.status").String())
		assert.Equal(s.T(), int64(1), res.Get("data.reopened_count").Int())
	})

	s.Run("Should reject a resolution on an open bug", func() {
		w := s.do("Tester", http.MethodPatch, url, map[string]any{"resolution_type": "Duplicate"})
		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})

	s.Run("Should be gone after delete", func() {
		w := s.do("Admin", http.MethodDelete, url, nil)
		require.Equal(s.T(), http.StatusNoContent, w.Code)

		w = s.do("Admin", http.MethodGet, url, nil)
		assert.Equal(s.T(), http.StatusNotFound, w.Code)
		assert.Equal(s.T(), "bug not found", gjson.Get(w.Body.String(), "error").String())

		w = s.do("Admin", http.MethodGet, "/api/v1/bugs?limit=100", nil)
		for _, row := range gjson.Get(w.Body.String(), "data").Array() {
			assert.NotEqual(s.T(), int64(id), row.Get("id").Int())
		}
	})
}

func (s *TestSuite) TestBugListSummary() {
	s.createBug("Admin", "summary one", map[string]any{"bug_type": "UI"})
	s.createBug("Admin", "summary two", map[string]any{"bug_type": "UI"})
	third := s.createBug("Admin", "summary three", map[string]any{"bug_type": "UI"})
	w := s.do("Admin", http.MethodPatch, fmt.Sprintf("/api/v1/bugs/%d", third), map[string]any{"status": "Testing"})
	require.Equal(s.T(), http.StatusOK, w.Code)

	w = s.do("Admin", http.MethodGet, "/api/v1/bugs?bug_type=UI&search=summary&limit=1", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	res := gjson.Parse(w.Body.String())
	assert.Len(s.T(), res.Get("data").Array(), 1)
	assert.Equal(s.T(), int64(3), res.Get("pagination.total").Int())
	assert.Equal(s.T(), int64(3), res.Get("pagination.pages").Int())
	assert.Equal(s.T(), int64(2), res.Get("summary.Open").Int())
	assert.Equal(s.T(), int64(1), res.Get("summary.Testing").Int())
}

func (s *TestSuite) TestBugAttachments() {
	id := s.createBug("Tester", "Attachment host", nil)
	url := fmt.Sprintf("/api/v1/bugs/%d/attachments", id)

	w := s.multipart("Tester", url, nil,
		upload{Name: "report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		upload{Name: "tool.exe", ContentType: "application/octet-stream", Content: []byte("MZ")},
		upload{Name: "screen.png", ContentType: "image/png", Content: []byte("png")},
	)
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	res := gjson.Parse(w.Body.String())
	assert.Len(s.T(), res.Get("data").Array(), 2)
	require.Len(s.T(), res.Get("rejected").Array(), 1)
	assert.Equal(s.T(), "tool.exe", res.Get("rejected.0.filename").String())
	assert.Equal(s.T(), "tool.exe: file type is not allowed", res.Get("rejected.0.reason").String())

	attachmentId := res.Get("data.0.id").Int()
	w = s.do("Tester", http.MethodGet, fmt.Sprintf("%s/%d", url, attachmentId), nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "%PDF-1.4", w.Body.String())
	assert.Contains(s.T(), w.Header().Get("Content-Disposition"), "report.pdf")

	w = s.multipart("Tester", url, nil, upload{Name: "huge.pdf", ContentType: "application/pdf", Content: make([]byte, config.MAX_UPLOAD_SIZE+1)})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), gjson.Get(w.Body.String(), "rejected.0.reason").String(), "10MB")
}

func (s *TestSuite) TestBugCreateWithFilesIsAtomic() {
	storedFiles := func() int {
		entries, _ := os.ReadDir(path.Join(s.Dir, "uploads", "bugs"))
		n := 0
		for _, e := range entries {
			if !e.IsDir() {
				n++
			}
		}
		return n
	}

	w := s.multipart("Admin", "/api/v1/bugs",
		map[string]string{"title": "Orphan check", "description": "x", "project_id": "999999"},
		upload{Name: "trace.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
	)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code, w.Body.String())
	var count int64
	require.NoError(s.T(), s.DB.Model(&models.Bug{}).Where("title = ?", "Orphan check").Count(&count).Error)
	assert.Zero(s.T(), count)
	assert.Zero(s.T(), storedFiles())

	w = s.multipart("Admin", "/api/v1/bugs",
		map[string]string{"title": "With trace", "description": "x"},
		upload{Name: "trace.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
	)
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "data.id").Uint()
	require.NoError(s.T(), s.DB.Model(&models.Attachment{}).Where("entity_type = ? AND entity_id = ?", "bugs", id).Count(&count).Error)
	assert.Equal(s.T(), int64(1), count)
	assert.Equal(s.T(), 1, storedFiles())
}

func (s *TestSuite) TestProjects() {
	w := s.do("Admin", http.MethodPost, "/api/v1/projects", map[string]any{
		"name":   "Billing Revamp",
		"status": "Development",
		"member_roles": map[string]string{
			fmt.Sprint(s.Tester.ID): "QA",
		},
		"milestones": []map[string]any{
			{"name": "Beta", "start_date": "2026-01-10", "end_date": "2026-02-01"},
		},
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	res := gjson.Parse(w.Body.String())
	assert.Equal(s.T(), "In Progress", res.Get("data.status").String())
	assert.Equal(s.T(), fmt.Sprintf("billing-revamp-%d", res.Get("data.id").Int()), res.Get("data.slug").String())
	assert.Equal(s.T(), "QA", res.Get(fmt.Sprintf("data.member_roles.%d", s.Tester.ID)).String())
	assert.Equal(s.T(), int64(s.Tester.ID), res.Get("data.member_ids.0").Int())
	assert.Equal(s.T(), "Pending", res.Get("data.milestones.0.status").String())

	w = s.do("Admin", http.MethodPost, "/api/v1/projects", map[string]any{
		"name": "Backwards", "start_date": "2026-03-01", "end_date": "2026-02-01",
	})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), gjson.Get(w.Body.String(), "error").String(), "end_date must be after start_date")

	w = s.do("Tester", http.MethodPost, "/api/v1/projects", map[string]any{"name": "Nope"})
	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *TestSuite) TestInventoryAdjust() {
	w := s.do("Admin", http.MethodPost, "/api/v1/inventory", map[string]any{
		"sku": "cab-hdmi", "name": "HDMI cable", "quantity": 6, "reorder_level": 5, "unit": "pcs",
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	res := gjson.Parse(w.Body.String())
	assert.Equal(s.T(), "CAB-HDMI", res.Get("data.sku").String())
	assert.Equal(s.T(), "In Stock", res.Get("data.status").String())
	url := fmt.Sprintf("/api/v1/inventory/%d", res.Get("data.id").Int())

	w = s.do("Admin", http.MethodPost, url+"/adjust", map[string]any{"delta": -2, "reason": "issued"})
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "Low Stock", gjson.Get(w.Body.String(), "data.status").String())

	w = s.do("Admin", http.MethodPost, url+"/adjust", map[string]any{"delta": -10, "reason": "issued"})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do("Admin", http.MethodGet, url+"/transactions", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Len(s.T(), gjson.Get(w.Body.String(), "data").Array(), 2)
}

func (s *TestSuite) TestAssetAssign() {
	w := s.do("Admin", http.MethodPost, "/api/v1/assets", map[string]any{
		"asset_tag": "LT-001", "name": "ThinkPad", "category": "Laptop", "status": "in stock",
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(s.T(), "Available", gjson.Get(w.Body.String(), "data.status").String())
	url := fmt.Sprintf("/api/v1/assets/%d", gjson.Get(w.Body.String(), "data.id").Int())

	w = s.do("Admin", http.MethodPost, url+"/assign", map[string]any{"user_id": s.Tester.ID})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	res := gjson.Parse(w.Body.String())
	assert.Equal(s.T(), "Assigned", res.Get("data.status").String())
	assert.Equal(s.T(), "Tess Tester", res.Get("data.assigned_to_name").String())

	w = s.do("Admin", http.MethodPost, url+"/assign", map[string]any{"user_id": nil})
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "Available", gjson.Get(w.Body.String(), "data.status").String())

	w = s.do("Admin", http.MethodPost, "/api/v1/assets", map[string]any{
		"asset_tag": "LT-001", "name": "Dup", "category": "Laptop",
	})
	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *TestSuite) TestAssetAssignmentHistory() {
	w := s.do("Admin", http.MethodPost, "/api/v1/assets", map[string]any{
		"asset_tag": "MON-007", "name": "Monitor", "category": "Display", "assigned_to": s.Tester.ID,
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	url := fmt.Sprintf("/api/v1/assets/%d", gjson.Get(w.Body.String(), "data.id").Int())

	w = s.do("Admin", http.MethodPost, url+"/assign", map[string]any{"user_id": s.Admin.ID})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	w = s.do("Admin", http.MethodPost, url+"/assign", map[string]any{"user_id": s.Admin.ID})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do("Admin", http.MethodGet, url+"/assignments", nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	history := gjson.Get(w.Body.String(), "data").Array()
	require.Len(s.T(), history, 2)
	assert.Equal(s.T(), "Ada Admin", history[0].Get("user_name").String())
	assert.Equal(s.T(), "Ada Admin", history[0].Get("assigned_by_name").String())
	assert.Equal(s.T(), gjson.Null, history[0].Get("returned_at").Type)
	assert.Equal(s.T(), "Tess Tester", history[1].Get("user_name").String())
	assert.NotEqual(s.T(), gjson.Null, history[1].Get("returned_at").Type)

	w = s.do("Admin", http.MethodPatch, url, map[string]any{"status": "Under Maintenance"})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	w = s.do("Admin", http.MethodGet, url+"/assignments", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.NotEqual(s.T(), gjson.Null, gjson.Get(w.Body.String(), "data.0.returned_at").Type)

	w = s.do("Tester", http.MethodGet, url+"/assignments", nil)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)
	w = s.do("Admin", http.MethodGet, "/api/v1/assets/999999/assignments", nil)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *TestSuite) TestProjectComments() {
	w := s.do("Admin", http.MethodPost, "/api/v1/projects", map[string]any{"name": "Discussed"})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	url := fmt.Sprintf("/api/v1/projects/%d/comments", gjson.Get(w.Body.String(), "data.id").Int())

	w = s.do("Tester", http.MethodPost, url, map[string]any{"body": "  Regression pass starts Monday  "})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(s.T(), "Regression pass starts Monday", gjson.Get(w.Body.String(), "data.body").String())

	w = s.do("Tester", http.MethodPost, url, map[string]any{"body": "   "})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do("Admin", http.MethodGet, url, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	comments := gjson.Get(w.Body.String(), "data").Array()
	require.Len(s.T(), comments, 1)
	assert.Equal(s.T(), "Tess Tester", comments[0].Get("author_name").String())

	w = s.do("Tester", http.MethodPost, "/api/v1/projects/999999/comments", map[string]any{"body": "hello"})
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *TestSuite) TestInventoryAttachments() {
	w := s.do("Admin", http.MethodPost, "/api/v1/inventory", map[string]any{
		"sku": "psu-65w", "name": "Power adapter", "quantity": 4, "reorder_level": 1,
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "data.id").Int()
	url := fmt.Sprintf("/api/v1/inventory/%d/attachments", id)

	w = s.multipart("Admin", url, nil,
		upload{Name: "invoice.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.7")},
		upload{Name: "setup.exe", ContentType: "application/octet-stream", Content: []byte("MZ")},
	)
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	res := gjson.Parse(w.Body.String())
	require.Len(s.T(), res.Get("data").Array(), 1)
	assert.Equal(s.T(), "inventory", res.Get("data.0.entity_type").String())
	assert.Equal(s.T(), "setup.exe", res.Get("rejected.0.filename").String())
	attachmentURL := fmt.Sprintf("%s/%d", url, res.Get("data.0.id").Int())

	w = s.do("Admin", http.MethodGet, attachmentURL, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "%PDF-1.7", w.Body.String())

	w = s.do("Tester", http.MethodGet, url, nil)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.do("Admin", http.MethodGet, fmt.Sprintf("/api/v1/bugs/%d/attachments/%d", id, res.Get("data.0.id").Int()), nil)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.do("Admin", http.MethodDelete, attachmentURL, nil)
	require.Equal(s.T(), http.StatusNoContent, w.Code)
	w = s.do("Admin", http.MethodGet, url, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Empty(s.T(), gjson.Get(w.Body.String(), "data").Array())
}

func (s *TestSuite) TestEmployees() {
	w := s.do("Admin", http.MethodPost, "/api/v1/employees", map[string]any{
		"first_name": "Grace", "last_name": "Hopper", "email": "grace@example.com",
		"role": "Developer", "password": "longenough", "department": "Engineering",
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	res := gjson.Parse(w.Body.String())
	id := res.Get("data.id").Int()
	assert.Equal(s.T(), fmt.Sprintf("EMP-%05d", id), res.Get("data.employee_code").String())
	assert.Equal(s.T(), "Developer", res.Get("data.user.role").String())

	w = s.do("Admin", http.MethodPost, "/api/v1/employees", map[string]any{
		"first_name": "Grace", "email": "grace@example.com", "role": "Developer", "password": "longenough",
	})
	assert.Equal(s.T(), http.StatusConflict, w.Code)

	w = s.do("Admin", http.MethodPost, "/api/v1/employees", map[string]any{
		"first_name": "Nobody", "email": "nobody@example.com", "role": "Overlord", "password": "longenough",
	})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), gjson.Get(w.Body.String(), "error").String(), "is not a known role")

	w = s.do("", http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "grace@example.com", "password": "longenough"})
	assert.Equal(s.T(), http.StatusOK, w.Code)

	url := fmt.Sprintf("/api/v1/employees/%d/documents", id)
	w = s.multipart("Admin", url, map[string]string{"document_type": "ID Proof"},
		upload{Name: "passport.pdf", ContentType: "application/pdf", Content: []byte("%PDF")})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	docId := gjson.Get(w.Body.String(), "data.0.id").Int()

	w = s.do("Admin", http.MethodPatch, fmt.Sprintf("%s/%d/verify", url, docId), map[string]any{"verified": true})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	assert.True(s.T(), gjson.Get(w.Body.String(), "data.verified").Bool())
	assert.Equal(s.T(), int64(s.Admin.ID), gjson.Get(w.Body.String(), "data.verified_by").Int())
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
