package log

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withMode(t *testing.T, mode SanitizationMode) {
	t.Helper()
	prev := Mode()
	SetMode(mode)
	t.Cleanup(func() { SetMode(prev) })
}

func TestSanitizePath(t *testing.T) {
	long := "/var/lib/kvtable/buckets/customers"

	tests := []struct {
		name string
		mode SanitizationMode
		in   string
		want func(t *testing.T, got string)
	}{
		{
			name: "production hashes",
			mode: ProductionMode,
			in:   long,
			want: func(t *testing.T, got string) {
				assert.True(t, strings.HasPrefix(got, "hash:"))
				assert.Len(t, got, len("hash:")+16)
				assert.NotContains(t, got, "customers")
			},
		},
		{
			name: "development truncates",
			mode: DevelopmentMode,
			in:   long,
			want: func(t *testing.T, got string) {
				assert.Equal(t, "/var/lib/k...stomers", got)
			},
		},
		{
			name: "development keeps short names",
			mode: DevelopmentMode,
			in:   "b1",
			want: func(t *testing.T, got string) {
				assert.Equal(t, "b1", got)
			},
		},
		{
			name: "debug keeps everything",
			mode: DebugMode,
			in:   long,
			want: func(t *testing.T, got string) {
				assert.Equal(t, long, got)
			},
		},
		{
			name: "empty",
			mode: ProductionMode,
			in:   "",
			want: func(t *testing.T, got string) {
				assert.Empty(t, got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withMode(t, tt.mode)
			tt.want(t, SanitizePath(tt.in))
		})
	}
}

func TestSanitizeSize(t *testing.T) {
	withMode(t, ProductionMode)
	assert.Equal(t, int64(2048), SanitizeSize(1800))

	SetMode(DebugMode)
	assert.Equal(t, int64(1800), SanitizeSize(1800))
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode(" Debug ")
	assert.True(t, ok)
	assert.Equal(t, DebugMode, mode)

	_, ok = ParseMode("verbose")
	assert.False(t, ok)
}

func TestFields(t *testing.T) {
	withMode(t, DebugMode)
	assert.Equal(t, "b", Bucket("b").String)
	assert.Equal(t, "k", Key("k").String)
}
