package httpx

import (
	"context"
	"net/netip"
)

// Unexported context key types avoid collisions across packages.
type (
	requestIDKey  struct{}
	clientAddrKey struct{}
)

// SetRequestIDInContext returns a child context carrying the request id.
// An empty id returns ctx unchanged.
func SetRequestIDInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id set by the Logging middleware.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// SetClientAddrInContext records the source address accepted by the gate.
func SetClientAddrInContext(ctx context.Context, addr netip.Addr) context.Context {
	if !addr.IsValid() {
		return ctx
	}
	return context.WithValue(ctx, clientAddrKey{}, addr)
}

// ClientAddrFromContext returns the gated source address, if any.
func ClientAddrFromContext(ctx context.Context) (netip.Addr, bool) {
	addr, ok := ctx.Value(clientAddrKey{}).(netip.Addr)
	return addr, ok && addr.IsValid()
}
