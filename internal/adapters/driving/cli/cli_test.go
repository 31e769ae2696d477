package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

// mockCacheService records calls and returns canned paths.
type mockCacheService struct {
	path     string
	err      error
	lastSrc  string
	lastApp  string
	lastSize *domain.SizeClass
}

func (m *mockCacheService) GetOrCreate(_ context.Context, src string, size *domain.SizeClass, app string) (string, error) {
	m.lastSrc, m.lastSize, m.lastApp = src, size, app
	return m.path, m.err
}

func (m *mockCacheService) LookupOnly(src string, size *domain.SizeClass, _ *int64) (string, error) {
	m.lastSrc, m.lastSize = src, size
	return m.path, m.err
}

func (m *mockCacheService) StoreExternallyGenerated(src string, _ domain.SizeClass, _ string, _ *int64, _ map[string]string) (string, error) {
	m.lastSrc = src
	return m.path, m.err
}

func (m *mockCacheService) RecordFailure(src, app string, _ *int64, _ map[string]string) (string, error) {
	m.lastSrc, m.lastApp = src, app
	return m.path, m.err
}

func (m *mockCacheService) IsMarkedFailed(src, app string, _ *int64) (bool, error) {
	m.lastSrc, m.lastApp = src, app
	return false, m.err
}

// mockJanitorService returns a canned report.
type mockJanitorService struct {
	report   domain.SweepReport
	err      error
	lastOpts domain.SweepOptions
}

func (m *mockJanitorService) Sweep(opts domain.SweepOptions) (domain.SweepReport, error) {
	m.lastOpts = opts
	return m.report, m.err
}

// execute swaps the mocks in, runs the root command with args, and
// returns its combined output.
func execute(t *testing.T, cache *mockCacheService, janitor *mockJanitorService, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	oldCache, oldJanitor := cacheService, janitorService
	if cache != nil {
		cacheService = cache
	}
	if janitor != nil {
		janitorService = janitor
	}
	t.Cleanup(func() {
		cacheService, janitorService = oldCache, oldJanitor
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}
