package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides base functionality for end-to-end pipeline
// tests: a bounded context and a scratch directory shared by the suite.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "canopy-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir

	s.T().Logf("Integration test suite started in %s", s.tempDir)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()

	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}

	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the suite scratch directory
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// SubDir creates and returns a fresh directory under the suite scratch
// directory, so tests in one suite do not see each other's outputs.
func (s *IntegrationTestSuite) SubDir(name string) string {
	dir, err := os.MkdirTemp(s.tempDir, name+"-*")
	require.NoError(s.T(), err)
	return dir
}

// CreateTempFile creates a file with content in the scratch directory
func (s *IntegrationTestSuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	require.NoError(s.T(), os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.T(), os.WriteFile(path, content, 0o600))
	return path
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
