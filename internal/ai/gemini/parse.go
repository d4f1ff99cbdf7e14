package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var objectRe = regexp.MustCompile(`(?s)\{.*\}`)

// decodeObject parses a model reply into a JSON object. Code fences are stripped; when the
// reply is not pure JSON the outermost {...} block is tried instead.
func decodeObject(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	err := json.Unmarshal([]byte(cleaned), &data)
	if err == nil && data != nil {
		return data, nil
	}

	block := objectRe.FindString(cleaned)
	if block == "" {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	data = nil
	if err := json.Unmarshal([]byte(block), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if data == nil {
		return nil, errors.New("parse gemini response: response is not a JSON object")
	}

	return data, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
