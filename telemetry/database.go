package telemetry

import (
	"fmt"
)

// DatabaseType identifies a supported database ingestion backend.
type DatabaseType string

const (
	// MySQL backend
	MySQL DatabaseType = "mysql"
	// PostgreSQL backend
	PostgreSQL DatabaseType = "postgresql"
)

// DatabaseSink is a sink backed by a relational database.
type DatabaseSink interface {
	Sink
	// InitDatabase creates the sample table if needed.
	InitDatabase() error
}

// NewDatabaseSink creates a database sink of the configured type.
func NewDatabaseSink(dbType string, dsn string) (DatabaseSink, error) {
	switch DatabaseType(dbType) {
	case MySQL:
		return NewMySQLSink(dsn)
	case PostgreSQL:
		return NewPostgreSQLSink(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
