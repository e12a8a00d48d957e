package timestamp

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 999, time.Local)
	assert.Equal(t, "2025-01-02-03-04-05", Encode(ts))
}

func TestEncode_FixedWidth(t *testing.T) {
	early := Encode(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local))
	late := Encode(time.Date(2025, 12, 31, 23, 59, 59, 0, time.Local))
	assert.Len(t, early, len(Layout))
	assert.Len(t, late, len(Layout))
}

func TestEncode_LexicographicMatchesChronological(t *testing.T) {
	base := time.Date(2024, 9, 9, 9, 59, 58, 0, time.Local)
	instants := []time.Time{
		base.Add(36 * time.Hour),
		base,
		base.Add(time.Second),
		base.Add(2 * time.Second),
		base.Add(31 * 24 * time.Hour),
		base.Add(-400 * 24 * time.Hour),
	}

	encoded := make([]string, len(instants))
	for i, in := range instants {
		encoded[i] = Encode(in)
	}
	sort.Strings(encoded)

	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })
	for i, in := range instants {
		assert.Equal(t, Encode(in), encoded[i])
	}
}

func TestEncode_SameSecondCollides(t *testing.T) {
	a := time.Date(2025, 5, 5, 5, 5, 5, 100, time.Local)
	b := a.Add(500 * time.Millisecond)
	assert.Equal(t, Encode(a), Encode(b))
}

func TestNow(t *testing.T) {
	fixed := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local) }
	assert.Equal(t, "2025-01-01-00-00-00", Now(fixed))
	assert.True(t, Valid(Now(nil)))
}

func TestParse_RoundTrip(t *testing.T) {
	in := time.Date(2023, 7, 14, 18, 45, 12, 0, time.Local)
	out, err := Parse(Encode(in))
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2025-01-01-00-00-00", true},
		{"2025-1-1-0-0-0", false},
		{"2025-13-01-00-00-00", false},
		{"../../etc/passwd", false},
		{"", false},
		{"2025-01-01-00-00-00.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.in))
		})
	}
}

func TestStripExtension(t *testing.T) {
	ts, ok := StripExtension("2025-01-01-00-00-00.txt")
	assert.True(t, ok)
	assert.Equal(t, "2025-01-01-00-00-00", ts)

	_, ok = StripExtension("2025-01-01-00-00-00.png")
	assert.False(t, ok)

	assert.Equal(t, "2025-01-01-00-00-00.txt", FileName("2025-01-01-00-00-00"))
}
