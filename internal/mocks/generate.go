// Package mocks provides mock implementations for testing the notifier.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// notification ports. To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	sink := mocks.NewMockSink(ctrl)
//	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for Sink interface from internal/observability/notify package.
// This creates MockSink with methods for all Sink interface methods:
// Send
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=sink_mock.go github.com/target/gha-notifier/internal/observability/notify Sink

// Generate mocks for UsagePublisher and RecipientResolver from internal/service/runnotifier.
// This creates MockUsagePublisher (Publish) and MockRecipientResolver (Resolve).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=runnotifier_mock.go github.com/target/gha-notifier/internal/service/runnotifier UsagePublisher,RecipientResolver

// Generate mock for StatusStore interface from internal/core package.
// This creates MockStatusStore with methods for all StatusStore interface methods:
// Get, Set, Snapshot
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=status_store_mock.go github.com/target/gha-notifier/internal/core StatusStore
