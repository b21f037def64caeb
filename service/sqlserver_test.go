package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/config"
)

func TestBuildConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SQLServerConfig
		expected string
	}{
		{
			name:     "sql auth with encryption",
			cfg:      config.SQLServerConfig{Server: "db", Port: "1433", Database: "crm", UserID: "u", Password: "p", Encrypt: true},
			expected: "server=db;port=1433;database=crm;user id=u;password=p;encrypt=true;TrustServerCertificate=true",
		},
		{
			name:     "trusted connection without encryption",
			cfg:      config.SQLServerConfig{Server: "db", Port: "1433", Database: "crm"},
			expected: "server=db;port=1433;database=crm;trusted_connection=true;encrypt=false",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildConnectionString(tt.cfg))
		})
	}
}

func TestNewSQLServerService_Incomplete(t *testing.T) {
	_, err := NewSQLServerService(config.SQLServerConfig{Server: "db"})
	assert.Error(t, err)
}

func TestExecuteQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewSQLServerServiceWithDB(db)
	defer svc.Close()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT Name, City, Employees, Created FROM Account").
		WillReturnRows(sqlmock.NewRows([]string{"Name", "City", "Employees", "Created"}).
			AddRow("Acme", nil, int64(42), created).
			AddRow([]byte("Globex"), "Springfield", nil, nil))
	mock.ExpectClose()

	result, err := svc.ExecuteQuery(context.Background(), "SELECT Name, City, Employees, Created FROM Account")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "City", "Employees", "Created"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, []interface{}{"Acme", nil, "42", "2024-05-01T10:00:00Z"}, result.Rows[0])
	assert.Equal(t, []interface{}{"Globex", "Springfield", nil, nil}, result.Rows[1])

	records := result.Records()
	require.Len(t, records, 2)
	assert.Nil(t, records[0][1].Value)
	assert.Equal(t, "Acme", *records[0][0].Value)
}

func TestExecuteQuery_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewSQLServerServiceWithDB(db)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"Name"}))

	result, err := svc.ExecuteQuery(context.Background(), "SELECT Name FROM Account WHERE 1=0")
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.NotNil(t, result.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewSQLServerServiceWithDB(db)

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	result, err := svc.ExecuteQuery(context.Background(), "SELECT broken")
	require.Error(t, err)
	assert.Equal(t, assert.AnError.Error(), result.Error)
}

func TestExecuteQuery_NotInitialized(t *testing.T) {
	_, err := (&SQLServerService{}).ExecuteQuery(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "not initialized")
}

func TestIsReadOnly(t *testing.T) {
	assert.True(t, IsReadOnly("SELECT * FROM Account"))
	assert.True(t, IsReadOnly("  with x as (select 1 as a) select a from x"))
	assert.False(t, IsReadOnly("DELETE FROM Account"))
	assert.False(t, IsReadOnly("SELECT 1; DROP TABLE Account"))
	assert.False(t, IsReadOnly("EXEC sp_who"))
	assert.True(t, IsReadOnly("SELECT Name, updated_at, created_by FROM Account;"))
	assert.True(t, IsReadOnly("(SELECT 1)"))

	for _, q := range []string{
		"SELECT 1;\nDELETE\nFROM student",
		"SELECT 1; DROP\tTABLE student",
		"SELECT * INTO student_copy FROM student",
		"select 1;select 2",
		"WITH x AS (SELECT 1 AS a)\nUPDATE\tAccount SET a = 1",
		"",
		";",
	} {
		assert.False(t, IsReadOnly(q), "%q", q)
	}
}
