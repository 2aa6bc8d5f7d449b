package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferKind(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"nil", nil, KindNull},
		{"bool", true, KindBool},
		{"int", 42, KindInt},
		{"int64", int64(42), KindInt},
		{"uint32", uint32(7), KindInt},
		{"float64", 3.14, KindFloat},
		{"time", time.Now(), KindTime},
		{"string", "hello", KindString},
		{"bytes", []byte("hello"), KindString},
		{"numeric string stays string", "42", KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferKind(tt.value))
		})
	}
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(""))
	assert.True(t, IsNull("   "))
	assert.True(t, IsNull([]byte("\t")))
	assert.False(t, IsNull("x"))
	assert.False(t, IsNull(0))
	assert.False(t, IsNull(false))
}

func TestAsFloat(t *testing.T) {
	f, ok := AsFloat(int64(3))
	require.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = AsFloat(" 2.5 ")
	require.True(t, ok)
	assert.Equal(t, 2.5, f)

	_, ok = AsFloat("abc")
	assert.False(t, ok)

	_, ok = AsFloat(true)
	assert.False(t, ok)
}

func TestAsTimeLayouts(t *testing.T) {
	tests := []string{
		"2026-01-02T10:00:00Z",
		"2026-01-02T10:00:00.123Z",
		"2026-01-02 10:00:00",
		"2026-01-02",
		"01/02/2026",
	}
	for _, s := range tests {
		_, ok := AsTime(s)
		assert.True(t, ok, "layout %q", s)
	}

	_, ok := AsTime("not a time")
	assert.False(t, ok)

	_, ok = AsTime(42)
	assert.False(t, ok)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"alice@example.com", FormatEmail},
		{"123e4567-e89b-12d3-a456-426614174000", FormatUUID},
		{"https://example.com/path", FormatURL},
		{"http://example.com", FormatURL},
		{"2026-01-02", FormatDate},
		{"2026-01-02T10:00:00Z", FormatDate},
		{"plain text", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.value), "value %q", tt.value)
	}
}

func TestMatchesFormat(t *testing.T) {
	assert.True(t, MatchesFormat("alice@example.com", FormatEmail))
	assert.False(t, MatchesFormat("alice@example.com", FormatUUID))
	assert.False(t, MatchesFormat("anything", "unknown-format"))
}
