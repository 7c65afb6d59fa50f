package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	models "github.com/phillip/eventhub-go/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=rwc", filepath.Join(t.TempDir(), "events.db"))
	s, err := NewSQLiteStore(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func sampleInput(name string, capacity int) models.EventInput {
	return models.EventInput{
		Name:        name,
		Venue:       "Main Hall",
		Date:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Time:        "18:30",
		Capacity:    capacity,
		Description: "An evening of talks",
		Status:      models.StatusUpcoming,
	}
}

func TestSQLiteCreateGetList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Create(ctx, sampleInput("Go Workshop", 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, sampleInput("Spring Hackathon", 5)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Go Workshop" || got.Time != "18:30" || got.Capacity != 10 {
		t.Errorf("unexpected event: %+v", got)
	}
	if !got.Date.Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", got.Date)
	}
	if got.RegisteredUsers == nil || got.Photos == nil {
		t.Error("slices must be non-nil for JSON clients")
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Go Workshop" || list[1].Name != "Spring Hackathon" {
		t.Fatalf("list order: %+v", list)
	}
}

func TestSQLiteGetErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "not-an-id"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("got %v, want ErrInvalidID", err)
	}
	if _, err := s.Get(ctx, "65f1c2a9e4b0a1b2c3d4e5f6"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSQLiteUpdateKeepsRegistrantsAndPhotos(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ev, _ := s.Create(ctx, sampleInput("Go Workshop", 10))
	if _, err := s.Register(ctx, ev.ID, models.Registrant{Name: "Ann", Email: "ann@example.com", Phone: "123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.AddPhotos(ctx, ev.ID, []string{"/uploads/a.jpg"}); err != nil {
		t.Fatalf("add photos: %v", err)
	}

	in := sampleInput("Go Workshop II", 20)
	in.Status = models.StatusCompleted
	updated, err := s.Update(ctx, ev.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Go Workshop II" || updated.Capacity != 20 || updated.Status != models.StatusCompleted {
		t.Errorf("fields not replaced: %+v", updated)
	}
	if len(updated.RegisteredUsers) != 1 || len(updated.Photos) != 1 {
		t.Errorf("update dropped registrants or photos: %+v", updated)
	}

	if _, err := s.Update(ctx, "65f1c2a9e4b0a1b2c3d4e5f6", in); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSQLiteDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ev, _ := s.Create(ctx, sampleInput("Go Workshop", 10))
	s.AddPhotos(ctx, ev.ID, []string{"/uploads/a.jpg", "/uploads/b.jpg"})

	deleted, err := s.Delete(ctx, ev.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleted.Photos) != 2 {
		t.Errorf("deleted event should carry its photos, got %v", deleted.Photos)
	}
	if _, err := s.Get(ctx, ev.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, err := s.Delete(ctx, ev.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteRegister(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ev, _ := s.Create(ctx, sampleInput("Tiny Meetup", 2))

	got, err := s.Register(ctx, ev.ID, models.Registrant{Name: "Ann", Email: "Ann@Example.com ", Phone: "1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(got.RegisteredUsers) != 1 || got.RegisteredUsers[0].Email != "Ann@Example.com" {
		t.Fatalf("unexpected registrants: %+v", got.RegisteredUsers)
	}

	if _, err := s.Register(ctx, ev.ID, models.Registrant{Name: "Ann again", Email: "ann@example.com", Phone: "1"}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate: got %v, want ErrAlreadyRegistered", err)
	}

	got, err = s.Register(ctx, ev.ID, models.Registrant{Name: "Bob", Email: "bob@example.com", Phone: "2"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if names := []string{got.RegisteredUsers[0].Name, got.RegisteredUsers[1].Name}; !reflect.DeepEqual(names, []string{"Ann", "Bob"}) {
		t.Errorf("registration order = %v", names)
	}

	if _, err := s.Register(ctx, ev.ID, models.Registrant{Name: "Cy", Email: "cy@example.com", Phone: "3"}); !errors.Is(err, ErrEventFull) {
		t.Errorf("full: got %v, want ErrEventFull", err)
	}
	if _, err := s.Register(ctx, "65f1c2a9e4b0a1b2c3d4e5f6", models.Registrant{Email: "x@example.com"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing event: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteRegisterNeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const capacity = 5
	const requests = 50
	ev, err := s.Create(ctx, sampleInput("Popular Hackathon", capacity))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var ok, full, other int32
	var wg sync.WaitGroup
	wg.Add(requests)
	for i := 0; i < requests; i++ {
		go func(i int) {
			defer wg.Done()
			r := models.Registrant{Name: "gopher", Email: fmt.Sprintf("gopher%d@example.com", i), Phone: "0"}
			_, err := s.Register(ctx, ev.ID, r)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, ErrEventFull):
				atomic.AddInt32(&full, 1)
			default:
				t.Logf("request %d: %v", i, err)
				atomic.AddInt32(&other, 1)
			}
		}(i)
	}
	wg.Wait()

	if ok != capacity || full != requests-capacity || other != 0 {
		t.Fatalf("ok=%d full=%d other=%d, want %d/%d/0", ok, full, other, capacity, requests-capacity)
	}
	got, _ := s.Get(ctx, ev.ID)
	if len(got.RegisteredUsers) != capacity {
		t.Fatalf("stored %d registrants, want %d", len(got.RegisteredUsers), capacity)
	}
}

func TestSQLitePhotos(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ev, _ := s.Create(ctx, sampleInput("Cultural Night", 10))
	got, err := s.AddPhotos(ctx, ev.ID, []string{"/uploads/0.jpg", "/uploads/1.jpg"})
	if err != nil {
		t.Fatalf("add photos: %v", err)
	}
	got, _ = s.AddPhotos(ctx, ev.ID, []string{"/uploads/2.jpg"})
	if want := []string{"/uploads/0.jpg", "/uploads/1.jpg", "/uploads/2.jpg"}; !reflect.DeepEqual(got.Photos, want) {
		t.Fatalf("photos = %v, want %v", got.Photos, want)
	}

	removed, err := s.RemovePhoto(ctx, ev.ID, 1)
	if err != nil {
		t.Fatalf("remove photo: %v", err)
	}
	if removed != "/uploads/1.jpg" {
		t.Errorf("removed %q", removed)
	}
	got, _ = s.Get(ctx, ev.ID)
	if want := []string{"/uploads/0.jpg", "/uploads/2.jpg"}; !reflect.DeepEqual(got.Photos, want) {
		t.Errorf("photos = %v, want %v", got.Photos, want)
	}

	for _, idx := range []int{-1, 2} {
		if _, err := s.RemovePhoto(ctx, ev.ID, idx); !errors.Is(err, ErrPhotoIndex) {
			t.Errorf("index %d: got %v, want ErrPhotoIndex", idx, err)
		}
	}
	if _, err := s.AddPhotos(ctx, "65f1c2a9e4b0a1b2c3d4e5f6", []string{"x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
