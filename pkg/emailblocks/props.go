package emailblocks

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// props wraps a block's property map with lenient typed accessors.
// Documents arrive from JSON (numbers as float64) or from Go code (ints,
// typed slices), so every accessor accepts both shapes.
type props map[string]interface{}

// str returns the property as a string, or fallback when missing or empty
func (p props) str(key, fallback string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}

	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	default:
		s = fmt.Sprintf("%v", val)
	}

	if s == "" {
		return fallback
	}
	return s
}

// integer returns the property as an int, or fallback when it does not parse
func (p props) integer(key string, fallback int) int {
	if n, ok := toInt(p[key]); ok {
		return n
	}
	return fallback
}

// boolean returns the property as a bool, or fallback when missing
func (p props) boolean(key string, fallback bool) bool {
	switch val := p[key].(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return fallback
		}
		return b
	default:
		return fallback
	}
}

func (p props) columns() []Column {
	switch val := p["columns"].(type) {
	case []Column:
		return val
	case []map[string]interface{}:
		out := make([]Column, 0, len(val))
		for _, m := range val {
			out = append(out, columnFromMap(m))
		}
		return out
	case []interface{}:
		out := make([]Column, 0, len(val))
		for _, item := range val {
			switch c := item.(type) {
			case map[string]interface{}:
				out = append(out, columnFromMap(c))
			case Column:
				out = append(out, c)
			}
		}
		return out
	default:
		return nil
	}
}

func (p props) networks() []SocialNetwork {
	switch val := p["networks"].(type) {
	case []SocialNetwork:
		return val
	case []map[string]interface{}:
		out := make([]SocialNetwork, 0, len(val))
		for _, m := range val {
			out = append(out, networkFromMap(m))
		}
		return out
	case []interface{}:
		out := make([]SocialNetwork, 0, len(val))
		for _, item := range val {
			switch n := item.(type) {
			case map[string]interface{}:
				out = append(out, networkFromMap(n))
			case SocialNetwork:
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}

func columnFromMap(m map[string]interface{}) Column {
	p := props(m)
	return Column{
		Content:   p.str("content", ""),
		Padding:   p.str("padding", ""),
		Alignment: p.str("alignment", ""),
		FontSize:  p.str("fontSize", ""),
		Color:     p.str("color", ""),
	}
}

func networkFromMap(m map[string]interface{}) SocialNetwork {
	p := props(m)
	return SocialNetwork{
		Platform: p.str("platform", ""),
		URL:      p.str("url", ""),
	}
}

// toInt converts numeric values and numeric strings ("150", "30px") to int
func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case float32:
		return floatToInt(float64(val))
	case float64:
		return floatToInt(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		return leadingInt(val)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Floor(f)), true
}

// leadingInt parses the integer prefix of values like "30px" or " 600 "
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || (end == 0 && s[end] == '-')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
