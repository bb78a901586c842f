package httpwire

import (
	"strings"
	"testing"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a+b", "a b"},
		{"a%20b", "a b"},
		{"%26%3D%25", "&=%"},
		{"%2B", "+"},
		{"100%", "100%"},
		{"%zz", "%zz"},
		{"%4", "%4"},
		{"%%41", "%A"},
		{"caf%C3%A9", "café"},
		{"%e2%98%95", "☕"},
	}

	for _, tt := range tests {
		if got := Unescape(tt.in); got != tt.want {
			t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseForm(t *testing.T) {
	form := ParseForm("ssid=Office&password=abc123&flag&=empty&ssid2=a%26b%3Dc")

	if form["ssid"] != "Office" {
		t.Errorf("ssid = %q", form["ssid"])
	}
	if form["password"] != "abc123" {
		t.Errorf("password = %q", form["password"])
	}
	if _, ok := form["flag"]; ok {
		t.Error("pairs without '=' should be dropped")
	}
	if form[""] != "empty" {
		t.Errorf("empty key = %q", form[""])
	}
	if form["ssid2"] != "a&b=c" {
		t.Errorf("ssid2 = %q", form["ssid2"])
	}
}

func TestParseFormEmpty(t *testing.T) {
	if form := ParseForm(""); len(form) != 0 {
		t.Errorf("ParseForm(\"\") = %v, want empty", form)
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	values := []string{
		"Home",
		"Cafe & Bar",
		"a=b",
		"100% sure",
		"  spaced  ",
		"plus+sign",
		"café ☕",
		strings.Repeat("x", 63),
	}

	for _, v := range values {
		if got := Unescape(Escape(v)); got != v {
			t.Errorf("Unescape(Escape(%q)) = %q", v, got)
		}
	}
}

func TestEncodeForm(t *testing.T) {
	body := EncodeForm("ssid", "Cafe & Bar", "password", "p=1%")
	form := ParseForm(body)

	if form["ssid"] != "Cafe & Bar" || form["password"] != "p=1%" {
		t.Errorf("ParseForm(EncodeForm()) = %v (body %q)", form, body)
	}
}
