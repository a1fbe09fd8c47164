// Package jsonutil extracts and decodes JSON from model replies that may be
// wrapped in markdown code fences or embedded in prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// StripMarkdownFences returns the body of a ```-fenced reply, or the
// trimmed text when it is not fenced.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	nl := strings.IndexByte(text, '\n')
	if nl == -1 {
		return text
	}
	body := text[nl+1:]
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	} else if strings.Count(text, "\n") < 2 {
		return text
	}
	return strings.TrimRight(body, "\n")
}

// ExtractObject returns the span from the first "{" to the last "}".
// Replies that open with a stray "[" in prose still yield their object.
func ExtractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// ErrNoJSON is returned when a reply holds no JSON object or array.
var ErrNoJSON = errors.New("no JSON content found")

// ParseObject strips markdown fences from a model reply, extracts its JSON
// object and unmarshals it into T.
func ParseObject[T any](raw string) (T, error) {
	var out T
	obj, err := ExtractObject(StripMarkdownFences(raw))
	if err != nil {
		return out, fmt.Errorf("%w (reply length %d)", err, len(raw))
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		var zero T
		return zero, fmt.Errorf("decode reply object: %w (text: %s)", err, Preview(obj, 200))
	}
	return out, nil
}

// Preview truncates s to at most n bytes on a rune boundary, marking the cut.
func Preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
