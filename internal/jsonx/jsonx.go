// Package jsonx extracts JSON objects from LLM responses that may be wrapped
// in markdown code fences or embedded in surrounding prose.
package jsonx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?i)```(?:json)?\\s*")

// Decode locates a JSON object in text and unmarshals it into v. Three
// strategies are tried in order: an object following a code fence, the first
// balanced object anywhere in the text, and finally the whole text as-is.
func Decode(text string, v interface{}) error {
	if loc := fenceRe.FindStringIndex(text); loc != nil {
		if obj, ok := balancedObject(text, loc[1]); ok {
			if err := json.Unmarshal([]byte(obj), v); err == nil {
				return nil
			}
		}
	}

	if obj, ok := balancedObject(text, 0); ok {
		if err := json.Unmarshal([]byte(obj), v); err == nil {
			return nil
		}
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), v); err != nil {
		return fmt.Errorf("no valid JSON object in response: %w", err)
	}
	return nil
}

// balancedObject returns the first brace-balanced object at or after from.
// Braces inside string literals are ignored.
func balancedObject(text string, from int) (string, bool) {
	start := strings.Index(text[from:], "{")
	if start == -1 {
		return "", false
	}
	start += from

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]

		if ch == '"' && !escaped {
			inString = !inString
		}
		if !inString {
			switch ch {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}

		if ch == '\\' {
			escaped = !escaped
		} else {
			escaped = false
		}
	}
	return "", false
}
