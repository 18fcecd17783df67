package core

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// DecodeJSON extracts a JSON payload from model output that may be wrapped in
// prose or code fences. It tries, in order: a direct parse of the whole
// string, the first fenced code block, and the substring between the first
// opening and last closing brace (or bracket). If everything fails it returns
// the caller's fallback and logs a warning — it never returns an error, as the
// last line of defense against malformed model output.
func DecodeJSON[T any](logger *zap.SugaredLogger, raw string, fallback T) T {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		logger.Warnw("model output empty, using fallback")
		return fallback
	}

	// Each attempt decodes into a fresh value: a failed Unmarshal can leave
	// fields partially populated, and those must not leak into a later
	// attempt's result.
	var direct T
	if err := json.Unmarshal([]byte(trimmed), &direct); err == nil {
		return direct
	}

	if m := fencedBlockRe.FindStringSubmatch(trimmed); m != nil {
		var fenced T
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &fenced); err == nil {
			return fenced
		}
	}

	if candidate := braceSpan(trimmed, '{', '}'); candidate != "" {
		var spanned T
		if err := json.Unmarshal([]byte(candidate), &spanned); err == nil {
			return spanned
		}
	}
	if candidate := braceSpan(trimmed, '[', ']'); candidate != "" {
		var spanned T
		if err := json.Unmarshal([]byte(candidate), &spanned); err == nil {
			return spanned
		}
	}

	logger.Warnw("could not extract JSON from model output, using fallback",
		"output_prefix", prefix(trimmed, 120))
	return fallback
}

// braceSpan returns the substring between the first open and last close
// delimiter, or "" when no such span exists.
func braceSpan(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
