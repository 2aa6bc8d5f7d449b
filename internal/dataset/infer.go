package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred logical type of a value.
type Kind int

// Inferred value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// InferKind classifies a single driver-native value.
// String values that parse cleanly as numbers or timestamps keep
// KindString; promotion happens at the column level via Profile.
func InferKind(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case time.Time:
		return KindTime
	case string, []byte:
		return KindString
	default:
		return KindString
	}
}

// IsNull reports whether a value is missing. Empty and whitespace-only
// strings count as missing, matching how CSV sources surface absent cells.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return strings.TrimSpace(string(t)) == ""
	default:
		return false
	}
}

// AsFloat converts a value to float64 where a numeric reading exists.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString converts a value to its string form for format checks.
func AsString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}

// timeLayouts are the accepted timestamp layouts for string parsing,
// tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// AsTime converts a value to a timestamp where one can be read.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return time.Time{}, false
	}
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Format patterns recognized by DetectFormat.
var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	uuidPattern  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ].*)?$`)
)

// Format names returned by DetectFormat and accepted by format rules.
const (
	FormatEmail = "email"
	FormatUUID  = "uuid"
	FormatURL   = "url"
	FormatDate  = "date"
)

// MatchesFormat reports whether a string value matches a named format.
// Unknown format names match nothing.
func MatchesFormat(s, format string) bool {
	switch format {
	case FormatEmail:
		return emailPattern.MatchString(s)
	case FormatUUID:
		return uuidPattern.MatchString(s)
	case FormatURL:
		return urlPattern.MatchString(s)
	case FormatDate:
		return datePattern.MatchString(s)
	default:
		return false
	}
}

// DetectFormat guesses a named format for a string value.
// Returns "" when no known format matches.
func DetectFormat(s string) string {
	switch {
	case emailPattern.MatchString(s):
		return FormatEmail
	case uuidPattern.MatchString(s):
		return FormatUUID
	case urlPattern.MatchString(s):
		return FormatURL
	case datePattern.MatchString(s):
		return FormatDate
	default:
		return ""
	}
}
