package flagstatus

import (
	"encoding/json"
	"strings"
	"time"
)

// ParseStrategy identifies which extraction step produced a record.
type ParseStrategy string

const (
	// ParseEmbedded means a brace-delimited object inside a text block parsed.
	ParseEmbedded ParseStrategy = "embedded"
	// ParseWhole means the concatenated text parsed as a single object.
	ParseWhole ParseStrategy = "whole"
	// ParseDefault means nothing parsed and the safe default was substituted.
	ParseDefault ParseStrategy = "default"
)

// ParseInference extracts a FlagStatus from the model's text blocks.
//
// The first block containing a balanced {...} object decides the outcome:
// if that object does not unmarshal, the safe default is returned rather
// than scanning further. When no block embeds an object, the concatenated
// text is tried as a whole. Every path yields a usable record.
func ParseInference(blocks []string, now time.Time) (FlagStatus, ParseStrategy) {
	for _, block := range blocks {
		obj, ok := firstJSONObject(block)
		if !ok {
			continue
		}
		var st FlagStatus
		if err := json.Unmarshal([]byte(obj), &st); err != nil {
			return DefaultStatus(now), ParseDefault
		}
		return st, ParseEmbedded
	}
	var st FlagStatus
	if err := json.Unmarshal([]byte(strings.Join(blocks, "\n")), &st); err != nil {
		return DefaultStatus(now), ParseDefault
	}
	return st, ParseWhole
}

// firstJSONObject returns the first balanced brace-delimited block in s,
// tracking string literals so braces inside quoted values do not count.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
