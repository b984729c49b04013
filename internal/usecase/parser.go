package usecase

import (
	"encoding/json"
	"strings"
)

// ParsedResponse carries whatever could be salvaged from raw model text: an
// optional free-text reasoning segment and an optional JSON payload.
type ParsedResponse struct {
	Reasoning string
	Payload   map[string]any
}

// HasPayload reports whether a JSON object was recovered.
func (p ParsedResponse) HasPayload() bool { return p.Payload != nil }

// HasReasoning reports whether a reasoning segment was recovered.
func (p ParsedResponse) HasReasoning() bool { return p.Reasoning != "" }

// ResponseParser extracts structure from free-text model output. Models wrap
// their JSON in prose, code fences with inconsistent labels, and sometimes
// truncate it mid-object, so extraction is layered: labeled fence, any fence,
// then a right-to-left balanced-brace scan. Parse never panics; every failure
// path reports absence instead.
type ResponseParser struct{}

// NewResponseParser creates a parser instance (stateless).
func NewResponseParser() ResponseParser {
	return ResponseParser{}
}

// Longer markers first: <think> is a prefix of <thinking>.
var reasoningMarkers = []struct {
	open, close string
}{
	{"<thinking>", "</thinking>"},
	{"<think>", "</think>"},
}

// Parse splits raw model output into a reasoning segment and a JSON payload.
func (ResponseParser) Parse(raw string) ParsedResponse {
	var parsed ParsedResponse

	rest := raw
	for _, m := range reasoningMarkers {
		open := strings.Index(rest, m.open)
		if open < 0 {
			continue
		}
		segment := rest[open+len(m.open):]
		if end := strings.Index(segment, m.close); end >= 0 {
			parsed.Reasoning = strings.TrimSpace(segment[:end])
			rest = rest[:open] + segment[end+len(m.close):]
		} else if fence := strings.Index(segment, "```"); fence >= 0 {
			// Unterminated reasoning: the model went straight into the
			// JSON fence without closing the marker.
			parsed.Reasoning = strings.TrimSpace(segment[:fence])
			rest = segment[fence:]
		} else {
			parsed.Reasoning = strings.TrimSpace(segment)
			rest = rest[:open]
		}
		break
	}

	parsed.Payload = extractJSON(rest)
	return parsed
}

// extractJSON recovers a JSON object from text, in priority order: a fence
// labeled json, any fence, then balanced {...} substrings tried from the last
// opening brace backward.
func extractJSON(text string) map[string]any {
	if block, ok := fencedBlock(text, true); ok {
		if payload := decodeObject(block); payload != nil {
			return payload
		}
	}
	if block, ok := fencedBlock(text, false); ok {
		if payload := decodeObject(block); payload != nil {
			return payload
		}
	}

	for i := len(text) - 1; i >= 0; i-- {
		if text[i] != '{' {
			continue
		}
		candidate, ok := balancedFrom(text, i)
		if !ok {
			continue
		}
		if payload := decodeObject(candidate); payload != nil {
			return payload
		}
	}
	return nil
}

// fencedBlock returns the contents of the first triple-backtick block. With
// jsonOnly set, only fences whose info string names json qualify.
func fencedBlock(text string, jsonOnly bool) (string, bool) {
	rest := text
	offset := 0
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			return "", false
		}
		afterTicks := offset + start + 3
		lineEnd := strings.IndexByte(text[afterTicks:], '\n')
		if lineEnd < 0 {
			return "", false
		}
		label := strings.ToLower(strings.TrimSpace(text[afterTicks : afterTicks+lineEnd]))
		bodyStart := afterTicks + lineEnd + 1
		end := strings.Index(text[bodyStart:], "```")

		if !jsonOnly || label == "json" || label == "jsonc" {
			if end < 0 {
				// Truncated output: take everything after the fence.
				return text[bodyStart:], true
			}
			return text[bodyStart : bodyStart+end], true
		}
		if end < 0 {
			return "", false
		}
		offset = bodyStart + end + 3
		rest = text[offset:]
	}
}

// balancedFrom returns the balanced {...} substring starting at start,
// respecting JSON string literals and escapes.
func balancedFrom(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func decodeObject(candidate string) map[string]any {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || candidate[0] != '{' {
		// Fenced content may still have prose around the object.
		brace := strings.IndexByte(candidate, '{')
		if brace < 0 {
			return nil
		}
		inner, ok := balancedFrom(candidate, brace)
		if !ok {
			return nil
		}
		candidate = inner
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil
	}
	return payload
}
