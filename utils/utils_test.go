package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMD5Hex(t *testing.T) {
	assert.Equal(t, "6e6fdf956d04289354dcf1619e28fe77", MD5Hex("pw1"))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", MD5Hex(""))
}

func TestISOTimeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 10, 18, 9, 30, 15, 123456000, Shanghai)

	s := FormatISOTime(ts)
	assert.Equal(t, "2026-10-18T09:30:15.123456+08:00", s)

	parsed, err := ParseISOTime(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}

func TestFormatISOTimeMatchesIsoformat(t *testing.T) {
	assert.Equal(t, "2026-10-18T09:30:15.120000+08:00",
		FormatISOTime(time.Date(2026, 10, 18, 9, 30, 15, 120000000, Shanghai)))
	assert.Equal(t, "2026-10-18T09:30:15.000001+08:00",
		FormatISOTime(time.Date(2026, 10, 18, 9, 30, 15, 1000, Shanghai)))
	assert.Equal(t, "2026-10-18T09:30:15+08:00",
		FormatISOTime(time.Date(2026, 10, 18, 9, 30, 15, 0, Shanghai)))
	// 亚微秒部分不输出
	assert.Equal(t, "2026-10-18T09:30:15+08:00",
		FormatISOTime(time.Date(2026, 10, 18, 9, 30, 15, 999, Shanghai)))
	assert.Equal(t, "2026-10-18T09:30:15+08:00",
		FormatISOTime(time.Date(2026, 10, 18, 1, 30, 15, 0, time.UTC)))
}

func TestParseISOTimeAcceptsOtherOffsets(t *testing.T) {
	parsed, err := ParseISOTime("2026-10-18T01:30:15Z")
	require.NoError(t, err)
	assert.Equal(t, 9, parsed.Hour())

	_, err = ParseISOTime("not-a-time")
	assert.Error(t, err)
}

func TestRandomDurationBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := RandomDuration(time.Second, 3*time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 3*time.Second)
	}
	assert.Equal(t, time.Second, RandomDuration(time.Second, time.Second))
}

func TestRandomIntInclusive(t *testing.T) {
	for i := 0; i < 1000; i++ {
		n := RandomIntInclusive(111, 987)
		assert.GreaterOrEqual(t, n, 111)
		assert.LessOrEqual(t, n, 987)
	}
}
