package allowlist

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeSet_Contains(t *testing.T) {
	set, err := NewRangeSet([]string{
		"192.30.252.0/22",
		"185.199.108.0/22",
		"2a0a:a440::/29",
		"203.0.113.7",
	})
	require.NoError(t, err)
	require.Equal(t, 4, set.Len())

	tests := []struct {
		addr string
		want bool
	}{
		{"192.30.252.1", true},
		{"192.30.255.255", true},
		{"192.30.251.255", false},
		{"185.199.110.153", true},
		{"2a0a:a440::1", true},
		{"2001:db8::1", false},
		{"203.0.113.7", true},
		{"203.0.113.8", false},
		{"::ffff:192.30.252.1", true},
		{"10.0.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, set.Contains(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestRangeSet_EmptyAndNil(t *testing.T) {
	var nilSet *RangeSet
	assert.False(t, nilSet.Contains(netip.MustParseAddr("127.0.0.1")))
	assert.Equal(t, 0, nilSet.Len())

	empty, err := NewRangeSet(nil)
	require.NoError(t, err)
	assert.False(t, empty.Contains(netip.MustParseAddr("127.0.0.1")))
	assert.False(t, empty.Contains(netip.Addr{}))
}

func TestNewRangeSet_Invalid(t *testing.T) {
	_, err := NewRangeSet([]string{"10.0.0.0/8", "not-a-range"})
	require.Error(t, err)

	_, err = NewRangeSet([]string{"10.0.0.0/33"})
	require.Error(t, err)
}

func TestRangeSet_MergeAndStrings(t *testing.T) {
	a, err := NewRangeSet([]string{"10.1.2.3/8"})
	require.NoError(t, err)
	b, err := NewRangeSet([]string{"192.0.2.1"})
	require.NoError(t, err)

	merged := a.Merge(b)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1/32"}, merged.Strings())
	assert.Equal(t, 1, a.Len(), "merge must not mutate receiver")
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		forwarded  []string
		trust      bool
		want       string
		wantParsed bool
	}{
		{name: "peer only", remote: "192.30.252.10:4431", trust: true, want: "192.30.252.10", wantParsed: true},
		{name: "ipv6 peer", remote: "[2a0a:a440::5]:443", trust: true, want: "2a0a:a440::5", wantParsed: true},
		{
			name:       "forwarded single",
			remote:     "10.0.0.2:5555",
			forwarded:  []string{"192.30.252.10"},
			trust:      true,
			want:       "192.30.252.10",
			wantParsed: true,
		},
		{
			name:       "forwarded chain uses proxy-appended hop",
			remote:     "10.0.0.2:5555",
			forwarded:  []string{"198.51.100.1, 192.30.252.10"},
			trust:      true,
			want:       "192.30.252.10",
			wantParsed: true,
		},
		{
			name:       "multiple header lines",
			remote:     "10.0.0.2:5555",
			forwarded:  []string{"198.51.100.1", "192.30.252.11"},
			trust:      true,
			want:       "192.30.252.11",
			wantParsed: true,
		},
		{
			name:       "forwarded ignored when untrusted",
			remote:     "10.0.0.2:5555",
			forwarded:  []string{"192.30.252.10"},
			trust:      false,
			want:       "10.0.0.2",
			wantParsed: true,
		},
		{
			name:       "garbage header falls back to peer",
			remote:     "10.0.0.2:5555",
			forwarded:  []string{"unknown"},
			trust:      true,
			want:       "10.0.0.2",
			wantParsed: true,
		},
		{name: "unparsable peer", remote: "pipe", trust: true, wantParsed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hook", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}

			addr, ok := ClientAddr(req, tt.trust)
			require.Equal(t, tt.wantParsed, ok)
			if tt.wantParsed {
				assert.Equal(t, netip.MustParseAddr(tt.want), addr)
			}
		})
	}
}
