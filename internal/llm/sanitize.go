package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

var allowedKeys = map[string]struct{}{
	"name": {}, "title": {}, "character_key": {}, "card_type": {},
	"affiliation": {}, "is_main_personality": {}, "is_ally": {},
	"card_subtypes": {}, "style": {}, "tags": {}, "power_stage_values": {},
	"pur": {}, "endurance": {}, "personality_level": {}, "main_power_text": {},
	"card_text_raw": {}, "effect_chunks": {}, "icons": {}, "rule_metadata": {},
	"confidence": {},
}

var allowedMetadataKeys = map[string]struct{}{
	"considered_as_styled_card": {}, "limit_per_deck": {}, "banished_after_use": {},
	"shuffle_into_deck_after_use": {}, "attach_limit": {}, "rejuvenate_amount": {},
	"rejuvenate_conditional": {}, "endurance_amount": {}, "endurance_conditional": {},
	"raise_anger_amount": {}, "raise_anger_conditional": {}, "lower_anger_amount": {},
	"lower_anger_conditional": {}, "drill_enters_play": {},
	"drill_enters_play_during_combat": {}, "attach_to_main_personality": {},
}

// SanitizeExtraction normalizes a raw model response toward the strict
// extraction schema:
//   - strips markdown code fences around the JSON
//   - drops null / empty optionals and unknown keys
//   - coerces numeric strings for the integer stat fields
//   - lowercases the enum-ish fields (card_type, affiliation, style)
func SanitizeExtraction(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	body := stripCodeFences(string(raw))
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	for _, k := range []string{"pur", "endurance", "personality_level"} {
		coerceInt(m, k, &dropped)
	}
	coerceIntArray(m, "power_stage_values", &dropped)

	for _, k := range []string{"card_type", "affiliation", "style"} {
		if v, ok := m[k].(string); ok {
			s := strings.ToLower(strings.TrimSpace(v))
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	for _, k := range []string{"name", "title", "character_key", "main_power_text", "card_text_raw"} {
		if v, ok := m[k].(string); ok {
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	if meta, ok := m["rule_metadata"].(map[string]any); ok {
		for k, v := range maps.Clone(meta) {
			if _, allowed := allowedMetadataKeys[k]; !allowed || v == nil {
				delete(meta, k)
				dropped = append(dropped, "rule_metadata."+k)
			}
		}
	}

	for k, v := range maps.Clone(m) {
		if _, ok := allowedKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		} else if v == nil {
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func coerceInt(m map[string]any, k string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	switch t := v.(type) {
	case float64:
		m[k] = int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			m[k] = n
		} else {
			delete(m, k)
			*dropped = append(*dropped, k+"(nan)")
		}
	case nil:
		delete(m, k)
		*dropped = append(*dropped, k+"(null)")
	default:
		delete(m, k)
		*dropped = append(*dropped, k+"(type)")
	}
}

func coerceIntArray(m map[string]any, k string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	arr, ok := v.([]any)
	if !ok {
		delete(m, k)
		*dropped = append(*dropped, k+"(type)")
		return
	}
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		switch t := el.(type) {
		case float64:
			out = append(out, int(t))
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				out = append(out, n)
			}
		}
	}
	if len(out) == 0 {
		delete(m, k)
		*dropped = append(*dropped, k+"(empty)")
		return
	}
	m[k] = out
}

// stripCodeFences unwraps ```json ... ``` style responses; when no fence is
// present it falls back to the outermost braces.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
