package controllers

import (
	"net/http"
	"testing"
)

type registrationReply struct {
	Message        string `json:"message"`
	Error          string `json:"error"`
	RemainingSlots int    `json:"remainingSlots"`
}

func TestRegisterForEvent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seed(t, "Go Workshop", 2, 3)
	path := "/api/events/" + ev.ID + "/register"

	w := env.doJSON(http.MethodPost, path, map[string]string{
		"name": "Ada Lovelace", "email": "Ada@Example.com", "phone": "0700000000",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", w.Code, w.Body)
	}
	var reply registrationReply
	decode(t, w, &reply)
	if reply.Message != "Successfully registered for the event!" || reply.RemainingSlots != 2 {
		t.Errorf("unexpected reply: %+v", reply)
	}

	// same address, different case
	w = env.doJSON(http.MethodPost, path, map[string]string{
		"name": "Ada", "email": "ada@EXAMPLE.com", "phone": "0700000000",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d, want 409", w.Code)
	}

	got, err := env.store.Get(t.Context(), ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.RegisteredUsers) != 1 || got.RegisteredUsers[0].Name != "Ada Lovelace" ||
		got.RegisteredUsers[0].Email != "Ada@Example.com" {
		t.Errorf("registrants = %+v", got.RegisteredUsers)
	}
}

func TestRegisterFullEvent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seed(t, "Spring Hackathon", 5, 10)
	env.fill(t, ev.ID, 10)

	w := env.doJSON(http.MethodPost, "/api/events/"+ev.ID+"/register", map[string]string{
		"name": "Late Comer", "email": "late@example.com", "phone": "555",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", w.Code)
	}
	var reply registrationReply
	decode(t, w, &reply)
	if reply.Message != "event is fully booked" || reply.Error != reply.Message {
		t.Errorf("unexpected reply: %+v", reply)
	}

	got, _ := env.store.Get(t.Context(), ev.ID)
	if len(got.RegisteredUsers) != 10 {
		t.Errorf("registrants = %d, want 10", len(got.RegisteredUsers))
	}
}

func TestRegisterRejections(t *testing.T) {
	env := newTestEnv(t)
	past := env.seed(t, "Cultural Night", -1, 10)
	open := env.seed(t, "Go Workshop", 1, 10)

	tests := []struct {
		name string
		path string
		body map[string]string
		want int
	}{
		{
			name: "past event",
			path: "/api/events/" + past.ID + "/register",
			body: map[string]string{"name": "A", "email": "a@example.com", "phone": "1"},
			want: http.StatusConflict,
		},
		{
			name: "unknown event",
			path: "/api/events/0123456789abcdef01234567/register",
			body: map[string]string{"name": "A", "email": "a@example.com", "phone": "1"},
			want: http.StatusNotFound,
		},
		{
			name: "malformed id",
			path: "/api/events/nope/register",
			body: map[string]string{"name": "A", "email": "a@example.com", "phone": "1"},
			want: http.StatusNotFound,
		},
		{
			name: "bad email",
			path: "/api/events/" + open.ID + "/register",
			body: map[string]string{"name": "A", "email": "not-an-email", "phone": "1"},
			want: http.StatusBadRequest,
		},
		{
			name: "missing phone",
			path: "/api/events/" + open.ID + "/register",
			body: map[string]string{"name": "A", "email": "a@example.com"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(http.MethodPost, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
			var reply registrationReply
			decode(t, w, &reply)
			if reply.Message == "" {
				t.Errorf("reply has no message: %s", w.Body)
			}
		})
	}
}
