package envutil

import "testing"

func TestBool(t *testing.T) {
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"yes", false, true},
		{" ON ", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tc := range cases {
		t.Setenv("ENVUTIL_TEST_BOOL", tc.val)
		if got := Bool("ENVUTIL_TEST_BOOL", tc.def); got != tc.want {
			t.Fatalf("Bool(%q, %v) = %v, want %v", tc.val, tc.def, got, tc.want)
		}
	}
}

func TestNumbersAndStrings(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "42")
	t.Setenv("ENVUTIL_TEST_FLOAT", "0.25")
	t.Setenv("ENVUTIL_TEST_BAD", "x")
	t.Setenv("ENVUTIL_TEST_STR", "  redis:6379 ")

	if got := Int("ENVUTIL_TEST_INT", 1); got != 42 {
		t.Fatalf("Int = %d", got)
	}
	if got := Int("ENVUTIL_TEST_BAD", 7); got != 7 {
		t.Fatalf("Int fallback = %d", got)
	}
	if got := Float("ENVUTIL_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float = %v", got)
	}
	if got := Float("ENVUTIL_TEST_BAD", 0.5); got != 0.5 {
		t.Fatalf("Float fallback = %v", got)
	}
	if got := String("ENVUTIL_TEST_STR", "x"); got != "redis:6379" {
		t.Fatalf("String = %q", got)
	}
	if got := String("ENVUTIL_TEST_UNSET", "def"); got != "def" {
		t.Fatalf("String default = %q", got)
	}
}
