package httpx

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDFromContext(t *testing.T) {
	// No id
	if id, ok := RequestIDFromContext(context.Background()); assert.False(t, ok) {
		assert.Empty(t, id)
	}

	// Empty id is ignored
	ctx := SetRequestIDInContext(context.Background(), "")
	_, ok := RequestIDFromContext(ctx)
	assert.False(t, ok)

	ctx = SetRequestIDInContext(context.Background(), "req-1")
	id, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)
}

func TestClientAddrFromContext(t *testing.T) {
	_, ok := ClientAddrFromContext(context.Background())
	assert.False(t, ok)

	_, ok = ClientAddrFromContext(SetClientAddrInContext(context.Background(), netip.Addr{}))
	assert.False(t, ok)

	want := netip.MustParseAddr("192.30.252.10")
	got, ok := ClientAddrFromContext(SetClientAddrInContext(context.Background(), want))
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
