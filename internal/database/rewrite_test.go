package database_test

import (
	"testing"
	"time"

	"wwtpDashboard/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite_Dialects(t *testing.T) {
	query := `SELECT "id", "cod" FROM "t500" WHERE "timestamp" BETWEEN ? AND ? AND "id" IN (?)`
	args := []any{"a", "b", []int{1, 2, 3}}

	tests := []struct {
		name    string
		dialect database.Dialect
		want    string
	}{
		{
			name:    "mysql",
			dialect: database.MySQL{},
			want:    "SELECT `id`, `cod` FROM `t500` WHERE `timestamp` BETWEEN ? AND ? AND `id` IN (?, ?, ?)",
		},
		{
			name:    "sqlserver",
			dialect: database.SQLServer{},
			want:    "SELECT [id], [cod] FROM [t500] WHERE [timestamp] BETWEEN @p1 AND @p2 AND [id] IN (@p3, @p4, @p5)",
		},
		{
			name:    "postgres",
			dialect: database.Postgres{},
			want:    `SELECT "id", "cod" FROM "t500" WHERE "timestamp" BETWEEN $1 AND $2 AND "id" IN ($3, $4, $5)`,
		},
		{
			name:    "sqlite",
			dialect: database.SQLite{},
			want:    `SELECT "id", "cod" FROM "t500" WHERE "timestamp" BETWEEN ? AND ? AND "id" IN (?, ?, ?)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, params, err := database.Rewrite(tt.dialect, query, args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []any{"a", "b", 1, 2, 3}, params)
		})
	}
}

func TestRewrite_LiteralsUntouched(t *testing.T) {
	query := `SELECT "id" FROM "tasks" WHERE "status" <> 'it''s "done"?' AND "id" = ?`

	got, params, err := database.Rewrite(database.SQLServer{}, query, []any{7})
	require.NoError(t, err)

	assert.Equal(t, `SELECT [id] FROM [tasks] WHERE [status] <> 'it''s "done"?' AND [id] = @p1`, got)
	assert.Equal(t, []any{7}, params)
}

func TestRewrite_EmptySliceMatchesNothing(t *testing.T) {
	got, params, err := database.Rewrite(database.Postgres{}, `SELECT 1 WHERE "id" IN (?) AND "x" = ?`, []any{[]int64{}, "y"})
	require.NoError(t, err)

	assert.Equal(t, `SELECT 1 WHERE "id" IN (NULL) AND "x" = $1`, got)
	assert.Equal(t, []any{"y"}, params)
}

func TestRewrite_BytesAreNotExpanded(t *testing.T) {
	_, params, err := database.Rewrite(database.MySQL{}, `SELECT ?`, []any{[]byte("raw")})
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte("raw")}, params)
}

func TestRewrite_TimesAreUTC(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	local := time.Date(2025, 1, 10, 7, 0, 0, 0, loc)

	_, params, err := database.Rewrite(database.SQLite{}, `SELECT ?, ?`, []any{local, &local})
	require.NoError(t, err)

	for _, p := range params {
		ts, ok := p.(time.Time)
		require.True(t, ok)
		assert.Equal(t, time.UTC, ts.Location())
		assert.Equal(t, 0, ts.Hour())
	}
}

func TestRewrite_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		args  []any
		want  error
	}{
		{name: "too few params", query: `SELECT ? , ?`, args: []any{1}, want: database.ErrParamMismatch},
		{name: "too many params", query: `SELECT ?`, args: []any{1, 2}, want: database.ErrParamMismatch},
		{name: "open literal", query: `SELECT 'abc`, want: database.ErrUnterminated},
		{name: "open identifier", query: `SELECT "abc`, want: database.ErrUnterminated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := database.Rewrite(database.MySQL{}, tt.query, tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDialect_InsertReturningID(t *testing.T) {
	tests := []struct {
		dialect    database.Dialect
		want       string
		returnsRow bool
	}{
		{database.MySQL{}, "INSERT INTO `tasks` (`title`, `status`) VALUES (?, ?)", false},
		{database.SQLServer{}, "INSERT INTO [tasks] ([title], [status]) OUTPUT INSERTED.[id] VALUES (@p1, @p2)", true},
		{database.Postgres{}, `INSERT INTO "tasks" ("title", "status") VALUES ($1, $2) RETURNING "id"`, true},
		{database.SQLite{}, `INSERT INTO "tasks" ("title", "status") VALUES (?, ?)`, false},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			neutral, returnsRow := tt.dialect.InsertReturningID("tasks", []string{"title", "status"})
			got, _, err := database.Rewrite(tt.dialect, neutral, []any{"x", "todo"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.returnsRow, returnsRow)
		})
	}
}

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"mysql", "sqlserver", "mssql", "postgres", "sqlite"} {
		d, err := database.DialectFor(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, d.DriverName())
	}

	_, err := database.DialectFor("oracle")
	assert.Error(t, err)
}
