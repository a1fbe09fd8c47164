package jsonutil

import (
	"errors"
	"strings"
	"testing"
)

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", "[1,2]"},
		{"no fence", `  {"a":1}  `, `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", "```json\n{\"a\":1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFences(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"prose around", `Sure! Here it is: {"a":{"b":2}} Enjoy.`, `{"a":{"b":2}}`, false},
		{"array in prose first", `Options [1] below: {"a":1}`, `{"a":1}`, false},
		{"none", "no json here", "", true},
		{"reversed", "} oops {", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSON) {
					t.Errorf("err = %v, want ErrNoJSON", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestParseObject(t *testing.T) {
	type reply struct {
		Caption  string   `json:"caption"`
		Hashtags []string `json:"hashtags"`
	}

	got, err := ParseObject[reply]("```json\n{\"caption\":\"hello\",\"hashtags\":[\"#a\"]}\n```")
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	if got.Caption != "hello" || len(got.Hashtags) != 1 {
		t.Errorf("got %+v", got)
	}

	_, err = ParseObject[reply](`{"caption": "unterminated`)
	if err == nil {
		t.Error("expected error for truncated JSON")
	}

	_, err = ParseObject[reply](`{"caption": 12}`)
	if err == nil || !strings.Contains(err.Error(), "decode reply object") {
		t.Errorf("type mismatch err = %v", err)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Preview("abcdefghij", 4); got != "abcd..." {
		t.Errorf("got %q", got)
	}
	// "é" is two bytes; a cut inside it backs up to the rune start.
	if got := Preview("aé", 2); got != "a..." {
		t.Errorf("got %q", got)
	}
}
