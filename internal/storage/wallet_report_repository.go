package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/types"
)

// WalletReport is a fraud report filed against a wallet
type WalletReport struct {
	ID         uuid.UUID `json:"id"`
	Address    string    `json:"address"`
	Reason     string    `json:"reason"`
	ReportedBy string    `json:"reportedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WalletReportRepository reads and writes the wallet_reports table
type WalletReportRepository struct {
	db *PostgresDB
}

// NewWalletReportRepository creates a new wallet report repository
func NewWalletReportRepository(db *PostgresDB) *WalletReportRepository {
	return &WalletReportRepository{db: db}
}

// Create inserts a report. ID and CreatedAt are filled in when empty.
// Reports are filed by an external service; the engine only reads them, and
// Create exists to seed the table for integration tests and local setups.
func (r *WalletReportRepository) Create(ctx context.Context, report *WalletReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	report.Address = types.NormalizeAddress(report.Address)

	query := `
		INSERT INTO wallet_reports (id, address, reason, reported_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		report.ID,
		report.Address,
		report.Reason,
		report.ReportedBy,
		report.CreatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("create wallet report", err)
	}
	return nil
}

// CountByWallet returns how many reports exist for address
func (r *WalletReportRepository) CountByWallet(ctx context.Context, address string) (int, error) {
	query := `SELECT COUNT(*) FROM wallet_reports WHERE address = $1`

	var count int64
	if err := r.db.Pool().QueryRow(ctx, query, types.NormalizeAddress(address)).Scan(&count); err != nil {
		return 0, apperrors.NewDatabaseError("count wallet reports", err)
	}
	return int(count), nil
}

// ReportCount implements detection.ReportHistoryLookup
func (r *WalletReportRepository) ReportCount(ctx context.Context, address string) (int, error) {
	return r.CountByWallet(ctx, address)
}
