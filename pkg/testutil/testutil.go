// Package testutil provides testing utilities for Canopy
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/canopy/pkg/models"
)

// TreesHeader is the header line of the street tree fixture files
const TreesHeader = "tree_id,address,species,legal_status,permit_notes"

// TreesCSV is a small street tree dataset covering every analysis:
// three trees at 100 Main St, two Banyan Figs of which one carries a permit
// number, and two DPW maintained Cherry Plums.
const TreesCSV = TreesHeader + `
1,100 Main St,Ficus macrophylla :: Moreton Bay Fig,DPW Maintained,
2,100 Main St,Ficus benghalensis :: Banyan Fig,Permitted Site,Permit Number 77221
3,100 Main St,Prunus cerasifera :: Cherry Plum,DPW Maintained,
4,200 Oak Ave,Ficus benghalensis :: Banyan Fig,Private,none
5,200 Oak Ave,Prunus cerasifera :: Cherry Plum,DPW Maintained,
6,,Tree(s) ::,Undocumented,
7,300 Pine St,Prunus cerasifera :: Cherry Plum,Private,
`

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TreeRow is one row of an in-memory tree table. Empty strings become nulls.
type TreeRow struct {
	Address     string
	Species     string
	LegalStatus string
	PermitNotes string
}

// TreeSchema is the contract schema with tree_id inferred as int and every
// other column a nullable string.
func TreeSchema() models.Schema {
	return models.NewSchema("trees",
		models.Field{Name: models.ColumnTreeID, Type: models.FieldTypeInt},
		models.Field{Name: models.ColumnAddress, Type: models.FieldTypeString, Nullable: true},
		models.Field{Name: models.ColumnSpecies, Type: models.FieldTypeString, Nullable: true},
		models.Field{Name: models.ColumnLegalStatus, Type: models.FieldTypeString, Nullable: true},
		models.Field{Name: models.ColumnPermitNotes, Type: models.FieldTypeString, Nullable: true},
	)
}

// TreeTable builds a contract table from rows, numbering tree ids from 1.
func TreeTable(t testing.TB, rows ...TreeRow) *models.Table {
	t.Helper()
	b := models.NewTableBuilder(TreeSchema())
	for i, r := range rows {
		require.NoError(t, b.Append(
			models.IntValue(int64(i+1)),
			optional(r.Address),
			optional(r.Species),
			optional(r.LegalStatus),
			optional(r.PermitNotes),
		), "row "+strconv.Itoa(i))
	}
	return b.Build()
}

func optional(s string) models.Value {
	if s == "" {
		return models.Null()
	}
	return models.StringValue(s)
}

// RequireNoError fails the test immediately if err is not nil.
// The msg parameter provides additional context in the failure message.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
