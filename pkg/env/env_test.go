package env

import "testing"

func TestGetFallsBack(t *testing.T) {
	t.Setenv("MEALDASH_TEST_VALUE", "")
	if got := Get("MEALDASH_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("MEALDASH_TEST_VALUE", "set")
	if got := Get("MEALDASH_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("MEALDASH_TEST_INT", "42")
	if got := GetInt("MEALDASH_TEST_INT", 1); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("MEALDASH_TEST_INT", "nope")
	if got := GetInt("MEALDASH_TEST_INT", 1); got != 1 {
		t.Fatalf("expected fallback 1, got %d", got)
	}
}
