package analyzer

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fenceRe matches markdown code fence markers the model likes to wrap its
// JSON in. The ```json alternative must come first so the plain ``` case
// doesn't leave a dangling "json" behind.
var fenceRe = regexp.MustCompile("(?i)```json|```")

// SanitizeAndParse strips wrapper text from a raw model response and parses
// the embedded JSON object. The candidate substring runs from the first "{"
// to the last "}" — an intentionally non-nested bracket scan. Multiple
// independent objects or trailing garbage inside that span therefore fail
// the parse rather than being recovered; that behavior is part of the
// contract and callers rely on the retry ladder instead.
func SanitizeAndParse(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	text := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 {
		return nil, ErrNoJSONFound
	}

	// A lone "}" before the first "{" leaves an empty candidate, which
	// fails the decode just like any other malformed span.
	var candidate string
	if end >= start {
		candidate = text[start : end+1]
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, &ParseError{Err: err}
	}
	return obj, nil
}
