// Package storetest holds the behavior every key-value backend must share.
package storetest

import (
	"slices"
	"testing"
)

// KV mirrors storage.Store so backends can run this suite without an import cycle.
type KV interface {
	Init() error
	Load() error
	Close() error
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear() error
	Keys() ([]string, error)
	Path() string
}

// Run exercises a freshly initialized store returned by open.
func Run(t *testing.T, open func(t *testing.T) KV) {
	t.Run("get missing key", func(t *testing.T) {
		s := open(t)
		v, ok, err := s.Get("pref_habits_json")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok || v != "" {
			t.Errorf("Get() = (%q, %v), want absent", v, ok)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t)
		if err := s.Set("pref_ticks_json", `[{"habitId":"a","date":"2026-01-01","amount":1}]`); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, err := s.Get("pref_ticks_json")
		if err != nil || !ok {
			t.Fatalf("Get() = (%q, %v, %v)", v, ok, err)
		}
		if v != `[{"habitId":"a","date":"2026-01-01","amount":1}]` {
			t.Errorf("Get() = %q", v)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		s := open(t)
		if err := s.Set("k", "one"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Set("k", "two"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, _, err := s.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if v != "two" {
			t.Errorf("Get() = %q, want two", v)
		}
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := open(t)
		if err := s.Set("k", ""); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		_, ok, err := s.Get("k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok {
			t.Error("empty value should still be reported present")
		}
	})

	t.Run("keys sorted", func(t *testing.T) {
		s := open(t)
		for _, k := range []string{"pref_moods_json", "pref_habits_json", "pref_settings_json"} {
			if err := s.Set(k, "[]"); err != nil {
				t.Fatalf("Set(%s) error = %v", k, err)
			}
		}
		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		want := []string{"pref_habits_json", "pref_moods_json", "pref_settings_json"}
		if !slices.Equal(keys, want) {
			t.Errorf("Keys() = %v, want %v", keys, want)
		}
	})

	t.Run("clear", func(t *testing.T) {
		s := open(t)
		if err := s.Set("a", "1"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Set("b", "2"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("Keys() after Clear = %v, want none", keys)
		}
		if _, ok, _ := s.Get("a"); ok {
			t.Error("Get() after Clear should report absent")
		}
	})

	t.Run("unicode round trip", func(t *testing.T) {
		s := open(t)
		v := `[{"emoji":"😮‍💨","note":"tired, but ok"}]`
		if err := s.Set("pref_moods_json", v); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, _, err := s.Get("pref_moods_json")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != v {
			t.Errorf("Get() = %q, want %q", got, v)
		}
	})
}

// RunDurable checks that values survive closing and reloading the store.
// reopen must return a new, unloaded store over the same location.
func RunDurable(t *testing.T, s KV, reopen func() KV) {
	t.Helper()
	if err := s.Set("pref_user_profile_json", `{"name":"Ana"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	again := reopen()
	if err := again.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer again.Close()

	v, ok, err := again.Get("pref_user_profile_json")
	if err != nil || !ok {
		t.Fatalf("Get() after reopen = (%q, %v, %v)", v, ok, err)
	}
	if v != `{"name":"Ana"}` {
		t.Errorf("Get() after reopen = %q", v)
	}
}
