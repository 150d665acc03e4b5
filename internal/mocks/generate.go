// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the auth ports. Hand-written doubles for simpler cases live in mocks/auth.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	profiles := mocks.NewMockProfileAPI(ctrl)
//	profiles.EXPECT().CurrentUser(gomock.Any(), gomock.Any()).Return(profile, nil)
package mocks

// Generate mock for ProfileAPI interface from internal/ports package.
// This creates MockProfileAPI with methods for all ProfileAPI interface methods:
// CurrentUser, UpdateProfile, EnsureUser, AcknowledgePasswordSet
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_api_mock.go github.com/bookloop/bookloop-ui-api/internal/ports ProfileAPI

// Generate mock for AuthEventRecorder interface from internal/ports package.
// This creates MockAuthEventRecorder with methods for all AuthEventRecorder interface methods:
// Record
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_event_recorder_mock.go github.com/bookloop/bookloop-ui-api/internal/ports AuthEventRecorder
