// Package mocks provides gomock doubles for the backend ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	jobs := mocks.NewMockJobAPI(ctrl)
//	jobs.EXPECT().Status(gomock.Any(), "job-1").Return("PROCESSING", nil)
package mocks

// AuthAPI: Login, Signup, Logout, Profile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/secureops/secureops-client/internal/ports AuthAPI

// JobAPI: Upload, Status
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_api_mock.go github.com/secureops/secureops-client/internal/ports JobAPI

// ResultsAPI: Summary, Violations, Proximity, Report
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=results_api_mock.go github.com/secureops/secureops-client/internal/ports ResultsAPI

// ResultCache: Get, Set
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=result_cache_mock.go github.com/secureops/secureops-client/internal/ports ResultCache
