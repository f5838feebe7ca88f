package kscreen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func records(t *testing.T, s string) []record {
	t.Helper()
	var rs []record
	for _, item := range listOf(mustJSON(t, s)) {
		r, _ := recordOf(item)
		rs = append(rs, r)
	}
	return rs
}

func TestResolvePrimary(t *testing.T) {
	for name, tc := range map[string]struct {
		records  string
		expected int
	}{
		"explicit beats priority": {
			`[{"enabled": true, "primary": true}, {"enabled": true, "priority": 1}]`, 0,
		},
		"explicit beats earlier priority": {
			`[{"enabled": true, "priority": 1}, {"enabled": true, "primary": true}]`, 1,
		},
		"explicit stops priority comparison": {
			`[{"enabled": true, "primary": 1}, {"enabled": true, "priority": 0}]`, 0,
		},
		"first explicit flag wins": {
			`[{"enabled": true, "primary": true}, {"enabled": true, "primary": true}]`, 0,
		},
		"tie keeps first": {
			`[{"enabled": true, "priority": 5}, {"enabled": true, "priority": 5}]`, 0,
		},
		"lowest priority": {
			`[{"enabled": true, "priority": 3}, {"enabled": true, "priority": "2"}, {"enabled": true, "priority": 4}]`, 1,
		},
		"disabled never primary": {
			`[{"enabled": false, "primary": true}, {"enabled": true, "priority": 9}]`, 1,
		},
		"disabled lowest priority": {
			`[{"enabled": false, "priority": 1}, {"enabled": true, "priority": 9}]`, 1,
		},
		"connected counts as enabled": {
			`[{"connected": true, "priority": 2}, {"enabled": true, "priority": 3}]`, 0,
		},
		"primary false is no flag": {
			`[{"enabled": true, "primary": false, "priority": 1}, {"enabled": true, "priority": 2}]`, 0,
		},
		"uncoercible priority": {
			`[{"enabled": true, "priority": "high"}, {"enabled": true}]`, -1,
		},
		"none enabled": {
			`[{"enabled": false, "primary": true}, {"priority": 1}]`, -1,
		},
		"empty": {`[]`, -1},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, resolvePrimary(records(t, tc.records)))
		})
	}
}

func TestResolvePrimarySkipsNonRecords(t *testing.T) {
	rs := []record{nil, {"enabled": BoolValue(true), "priority": IntValue(4)}}
	require.Equal(t, 1, resolvePrimary(rs))
}
