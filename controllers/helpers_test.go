package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/eventhub-go/config"
	models "github.com/phillip/eventhub-go/models"
	store "github.com/phillip/eventhub-go/store"
)

// fixedNow is the clock every handler test runs against.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakePhotos struct {
	mu      sync.Mutex
	saved   int
	deleted []string
	failAt  int // 1-based Save call that fails; 0 never
}

func (f *fakePhotos) Save(_ context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	if f.failAt != 0 && f.saved == f.failAt {
		return "", fmt.Errorf("upload refused")
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("/uploads/%d-%s", f.saved, header.Filename), nil
}

func (f *fakePhotos) Delete(_ context.Context, uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uri)
	return nil
}

type testEnv struct {
	router *gin.Engine
	deps   *Deps
	store  *store.SQLiteStore
	photos *fakePhotos
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=rwc", filepath.Join(t.TempDir(), "events.db"))
	s, err := store.NewSQLiteStore(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })

	cfg := config.Default()
	photos := &fakePhotos{}
	d := &Deps{
		Config:   cfg,
		Store:    s,
		Photos:   photos,
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/login", Login(d))
	api.GET("/calendar.ics", CalendarFeed(d))
	api.GET("/events", ListEvents(d))
	api.GET("/events/:id", GetEvent(d))
	api.POST("/events", CreateEvent(d))
	api.PUT("/events/:id", UpdateEvent(d))
	api.DELETE("/events/:id", DeleteEvent(d))
	api.POST("/events/:id/register", RegisterForEvent(d))
	api.POST("/events/:id/photos", AddPhotos(d))
	api.DELETE("/events/:id/photos/:index", DeletePhoto(d))
	api.GET("/views/listing", ListingView(d))
	api.GET("/views/register/:id", RegistrationView(d))
	api.GET("/views/gallery", GalleryView(d))
	api.GET("/views/admin", AdminView(d))
	api.GET("/views/admin/:id/registrations", RegistrationsView(d))

	return &testEnv{router: r, deps: d, store: s, photos: photos}
}

// seed stores an event dated offsetDays from fixedNow with no admin status.
func (e *testEnv) seed(t *testing.T, name string, offsetDays, capacity int) models.Event {
	t.Helper()
	y, m, d := fixedNow.Date()
	ev, err := e.store.Create(context.Background(), models.EventInput{
		Name:        name,
		Venue:       "Main Hall",
		Date:        time.Date(y, m, d+offsetDays, 0, 0, 0, 0, time.UTC),
		Time:        "18:00",
		Capacity:    capacity,
		Description: "details",
	})
	if err != nil {
		t.Fatalf("seed %q: %v", name, err)
	}
	return ev
}

func (e *testEnv) fill(t *testing.T, id string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		r := models.Registrant{Name: "Guest", Email: fmt.Sprintf("guest%d@example.com", i), Phone: "555"}
		if _, err := e.store.Register(context.Background(), id, r); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// imagePart is one file in a multipart upload.
type imagePart struct {
	name        string
	contentType string
}

func multipartPhotos(t *testing.T, parts ...imagePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename=%q`, p.name))
		h.Set("Content-Type", p.contentType)
		fw, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		fw.Write([]byte("not really an image"))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func newJSONRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newFormRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
