package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	_ "github.com/microsoft/go-mssqldb"

	"querydesk/config"
	"querydesk/models"
)

// SQLServerService runs generated queries against SQL Server.
type SQLServerService struct {
	db *sql.DB
}

func NewSQLServerService(cfg config.SQLServerConfig) (*SQLServerService, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("SQL Server configuration is incomplete")
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL Server connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		// Start anyway; the server may come up later.
		log.Printf("[SQL] Warning: failed to ping SQL Server during initialization: %v", err)
	}

	return &SQLServerService{db: db}, nil
}

// NewSQLServerServiceWithDB wraps an already opened handle.
func NewSQLServerServiceWithDB(db *sql.DB) *SQLServerService {
	return &SQLServerService{db: db}
}

func buildConnectionString(cfg config.SQLServerConfig) string {
	connStr := fmt.Sprintf("server=%s;port=%s;database=%s", cfg.Server, cfg.Port, cfg.Database)

	if cfg.UserID != "" {
		connStr += fmt.Sprintf(";user id=%s;password=%s", cfg.UserID, cfg.Password)
	} else {
		connStr += ";trusted_connection=true"
	}

	if cfg.Encrypt {
		// Internal servers commonly use self-signed certificates.
		connStr += ";encrypt=true;TrustServerCertificate=true"
	} else {
		connStr += ";encrypt=false"
	}
	return connStr
}

func (s *SQLServerService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ExecuteQuery runs query and returns every row with values rendered as strings.
// NULLs stay nil.
func (s *SQLServerService) ExecuteQuery(ctx context.Context, query string) (*models.SQLResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("SQL Server connection is not initialized")
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return &models.SQLResult{Error: err.Error()}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &models.SQLResult{Error: err.Error()}, err
	}

	resultRows := [][]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return &models.SQLResult{Error: err.Error()}, err
		}

		row := make([]interface{}, len(columns))
		for i, val := range values {
			row[i] = stringify(val)
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return &models.SQLResult{Error: err.Error()}, err
	}

	return &models.SQLResult{Columns: columns, Rows: resultRows}, nil
}

func stringify(val interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (s *SQLServerService) IsConnected(ctx context.Context) bool {
	if s.db == nil {
		return false
	}
	return s.db.PingContext(ctx) == nil
}

var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true, "ALTER": true,
	"TRUNCATE": true, "MERGE": true, "EXEC": true, "EXECUTE": true, "CREATE": true,
	"INTO": true, "GRANT": true, "REVOKE": true, "DENY": true,
}

// IsReadOnly reports whether a statement is a single plain query. Generated
// SQL that would modify data is refused before execution. Keywords are
// matched as whole words, so column names such as updated_at pass.
func IsReadOnly(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	if stmt, rest, found := strings.Cut(q, ";"); found {
		if strings.TrimSpace(rest) != "" {
			return false
		}
		q = stmt
	}

	tokens := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(tokens) == 0 || (tokens[0] != "SELECT" && tokens[0] != "WITH") {
		return false
	}
	for _, tok := range tokens {
		if writeKeywords[tok] {
			return false
		}
	}
	return true
}
