package session

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"  Alice  ":             "Alice",
		"":                      DefaultName,
		"\u200b\u200d":          DefaultName,
		"Bo\tb\n Smith":         "Bob Smith",
		"Ann   Lee":             "Ann Lee",
		"e\u0301mile":           "\u00e9mile",
		"a\u202eevil":           "aevil",
		strings.Repeat("x", 40): strings.Repeat("x", MaxNameRunes),
		strings.Repeat("가", 30): strings.Repeat("가", MaxNameRunes),
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q)=%q want %q", in, got, want)
		}
	}
}

func TestFoldName(t *testing.T) {
	if FoldName(" Émile ") != FoldName("emile") {
		t.Fatalf("fold mismatch: %q vs %q", FoldName(" Émile "), FoldName("emile"))
	}
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time { n++; return base.Add(time.Duration(n) * time.Second) }

	if _, err := r.Login(" ", "x", ""); err == nil {
		t.Fatalf("expected error for empty id")
	}
	a, err := r.Login("c1", " Alice ", "🐱")
	if err != nil || a.Name != "Alice" || !a.IsOnline {
		t.Fatalf("login: %+v %v", a, err)
	}
	if _, err := r.Login("c2", "Bob", ""); err != nil {
		t.Fatalf("login bob: %v", err)
	}

	if u, ok := r.SetRoom("c1", "room-1"); !ok || u.RoomID != "room-1" {
		t.Fatalf("set room: %+v", u)
	}
	if got := r.InRoom("room-1"); len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("in room: %+v", got)
	}
	if all := r.All(); len(all) != 2 || all[0].ID != "c1" {
		t.Fatalf("all: %+v", all)
	}
	if p := a.Player(); p.ID != "c1" || p.Name != "Alice" {
		t.Fatalf("player: %+v", p)
	}

	u, ok := r.Remove("c1")
	if !ok || u.IsOnline || u.RoomID != "room-1" {
		t.Fatalf("remove: %+v", u)
	}
	if _, ok := r.Get("c1"); ok {
		t.Fatalf("user still present")
	}
	if _, ok := r.SetRoom("c1", "x"); ok {
		t.Fatalf("set room on removed user")
	}
}
