package env

import "testing"

func TestGetOr(t *testing.T) {
	t.Setenv("FREIGHTLINE_TEST_FORMAT", "console")
	if got := GetOr("FREIGHTLINE_TEST_FORMAT", "json"); got != "console" {
		t.Fatalf("set variable: got %q", got)
	}
	t.Setenv("FREIGHTLINE_TEST_FORMAT", "   ")
	if got := GetOr("FREIGHTLINE_TEST_FORMAT", "json"); got != "json" {
		t.Fatalf("blank variable must fall back: got %q", got)
	}
}

func TestEnabled(t *testing.T) {
	for _, value := range []string{"1", "true", "YES", " on "} {
		t.Setenv("FREIGHTLINE_TEST_FLAG", value)
		if !Enabled("FREIGHTLINE_TEST_FLAG") {
			t.Fatalf("expected %q to enable the flag", value)
		}
	}
	t.Setenv("FREIGHTLINE_TEST_FLAG", "off")
	if Enabled("FREIGHTLINE_TEST_FLAG") {
		t.Fatal("off must not enable the flag")
	}
}
