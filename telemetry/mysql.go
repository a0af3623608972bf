package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/eddielth/airtouch-telemetry/logger"
)

// MySQLSink ingests sample batches into a MySQL database.
type MySQLSink struct {
	db  *sql.DB
	dsn string
}

// NewMySQLSink creates a new MySQL ingestion sink.
func NewMySQLSink(dsn string) (*MySQLSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("MySQL DSN cannot be empty")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL connection test failed: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	sink := &MySQLSink{
		db:  db,
		dsn: dsn,
	}

	if err := sink.InitDatabase(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize MySQL schema: %v", err)
	}

	logger.Info("MySQL ingestion sink initialized")
	return sink, nil
}

// InitDatabase creates the sample table.
func (s *MySQLSink) InitDatabase() error {
	tableSQL := `
	CREATE TABLE IF NOT EXISTS zone_samples (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		value DOUBLE NOT NULL,
		attributes JSON,
		recorded_at TIMESTAMP(3) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_zone_samples_name (name),
		INDEX idx_zone_samples_recorded_at (recorded_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := s.db.Exec(tableSQL); err != nil {
		return fmt.Errorf("failed to create sample table: %v", err)
	}

	return nil
}

// Export inserts the batch in one transaction.
func (s *MySQLSink) Export(samples []Sample) error {
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
			logger.Error("MySQL transaction rolled back: %v", err)
		}
	}()

	valueStrings := make([]string, 0, len(samples))
	valueArgs := make([]interface{}, 0, len(samples)*4)

	for _, sample := range samples {
		attrsJSON, merr := json.Marshal(sample.Attributes)
		if merr != nil {
			err = fmt.Errorf("failed to serialize attributes: %v", merr)
			return err
		}

		valueStrings = append(valueStrings, "(?, ?, ?, ?)")
		valueArgs = append(valueArgs, sample.Name, sample.Value, attrsJSON, sample.Timestamp)
	}

	insertSQL := fmt.Sprintf("INSERT INTO zone_samples (name, value, attributes, recorded_at) VALUES %s",
		strings.Join(valueStrings, ","))

	if _, err = tx.Exec(insertSQL, valueArgs...); err != nil {
		return fmt.Errorf("failed to insert samples: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	logger.Debug("ingested %d samples into MySQL", len(samples))
	return nil
}

// Close closes the database connection.
func (s *MySQLSink) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close MySQL connection: %v", err)
		}
		logger.Info("MySQL connection closed")
	}
	return nil
}
