package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/reserva-bot/internal/db"
)

type boolRow struct {
	v   bool
	err error
}

func (r boolRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.v
	return nil
}

type fakeDB struct {
	applied map[string]bool
	execs   []string
	failOn  string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) error {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return errors.New("syntax error")
	}
	f.execs = append(f.execs, sql)
	if strings.HasPrefix(sql, "INSERT INTO schema_migrations") {
		f.applied[args[0].(string)] = true
	}
	return nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) db.Row {
	return boolRow{v: f.applied[args[0].(string)]}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (db.Rows, error) {
	return nil, errors.New("not used")
}

func TestUp_AppliesOnce(t *testing.T) {
	f := &fakeDB{applied: map[string]bool{}}

	applied, err := Up(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_journal.sql"}, applied)
	assert.True(t, f.applied["0001_journal.sql"])

	applied, err = Up(context.Background(), f)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestUp_ReportsFailingFile(t *testing.T) {
	f := &fakeDB{applied: map[string]bool{}, failOn: "availability_checks"}
	_, err := Up(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply 0001_journal.sql")
	assert.False(t, f.applied["0001_journal.sql"])
}
