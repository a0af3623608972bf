package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/eddielth/airtouch-telemetry/logger"
)

// PostgreSQLSink ingests sample batches into a PostgreSQL database.
type PostgreSQLSink struct {
	db  *sql.DB
	dsn string
}

// NewPostgreSQLSink creates a new PostgreSQL ingestion sink.
func NewPostgreSQLSink(dsn string) (*PostgreSQLSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("PostgreSQL DSN cannot be empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("PostgreSQL connection test failed: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	sink := &PostgreSQLSink{
		db:  db,
		dsn: dsn,
	}

	if err := sink.InitDatabase(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize PostgreSQL schema: %v", err)
	}

	logger.Info("PostgreSQL ingestion sink initialized")
	return sink, nil
}

// InitDatabase creates the sample table and its indexes.
func (s *PostgreSQLSink) InitDatabase() error {
	tableSQL := `
	CREATE TABLE IF NOT EXISTS zone_samples (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		attributes JSONB,
		recorded_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_zone_samples_name ON zone_samples(name);
	CREATE INDEX IF NOT EXISTS idx_zone_samples_recorded_at ON zone_samples(recorded_at);
	`

	if _, err := s.db.Exec(tableSQL); err != nil {
		return fmt.Errorf("failed to create sample table: %v", err)
	}

	return nil
}

// Export inserts the batch in one transaction.
func (s *PostgreSQLSink) Export(samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			logger.Error("PostgreSQL transaction rolled back: %v", err)
		}
	}()

	valueStrings := make([]string, 0, len(samples))
	valueArgs := make([]interface{}, 0, len(samples)*4)
	paramCounter := 1

	for _, sample := range samples {
		attrsJSON, merr := json.Marshal(sample.Attributes)
		if merr != nil {
			err = fmt.Errorf("failed to serialize attributes: %v", merr)
			return err
		}

		placeholders := fmt.Sprintf("($%d, $%d, $%d, $%d)",
			paramCounter, paramCounter+1, paramCounter+2, paramCounter+3)
		valueStrings = append(valueStrings, placeholders)
		valueArgs = append(valueArgs, sample.Name, sample.Value, attrsJSON, sample.Timestamp)
		paramCounter += 4
	}

	insertSQL := fmt.Sprintf("INSERT INTO zone_samples (name, value, attributes, recorded_at) VALUES %s",
		strings.Join(valueStrings, ","))

	if _, err = tx.Exec(insertSQL, valueArgs...); err != nil {
		return fmt.Errorf("failed to insert samples: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	logger.Debug("ingested %d samples into PostgreSQL", len(samples))
	return nil
}

// Close closes the database connection.
func (s *PostgreSQLSink) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close PostgreSQL connection: %v", err)
		}
		logger.Info("PostgreSQL connection closed")
	}
	return nil
}
