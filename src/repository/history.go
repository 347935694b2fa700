package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/atlasfin/engine/src/models"
)

// HistoryRepository records finished calculations for later retrieval.
// Saves are best-effort at the call sites: a failed save is logged, never
// surfaced to the caller of the calculation.
type HistoryRepository interface {
	Save(ctx context.Context, record models.CalculationRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.CalculationRecord, error)
}

// SQLiteHistoryRepository persists calculations in the calculations table.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

func (r *SQLiteHistoryRepository) Save(ctx context.Context, record models.CalculationRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calculations (request_id, user_id, operation, request_hash, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.RequestID, record.UserID, record.Operation, record.RequestHash, record.ResultJSON, record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving calculation %s: %w", record.RequestID, err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.CalculationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT request_id, user_id, operation, request_hash, result_json, created_at
		FROM calculations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing calculations for user %s: %w", userID, err)
	}
	defer rows.Close()

	var records []models.CalculationRecord
	for rows.Next() {
		var rec models.CalculationRecord
		if err := rows.Scan(&rec.RequestID, &rec.UserID, &rec.Operation, &rec.RequestHash, &rec.ResultJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning calculation row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating calculation rows: %w", err)
	}
	return records, nil
}

// MemoryHistoryRepository keeps records in memory, newest first. Used in
// tests and when running without a database file.
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	records []models.CalculationRecord
}

func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{}
}

func (r *MemoryHistoryRepository) Save(_ context.Context, record models.CalculationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	r.records = append([]models.CalculationRecord{record}, r.records...)
	return nil
}

func (r *MemoryHistoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]models.CalculationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.CalculationRecord
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
