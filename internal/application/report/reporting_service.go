package report

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/report"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportService provides the read-only reporting queries. Ledger-derived
// reports and the document-derived monthly statistics are separate read
// paths with independently computed revenue figures; the accounting totals
// are the authoritative ones.
type ReportService struct {
	financialRepo report.FinancialReportRepository
	statsRepo     report.StatsRepository
}

// NewReportService creates a new ReportService
func NewReportService(
	financialRepo report.FinancialReportRepository,
	statsRepo report.StatsRepository,
) *ReportService {
	return &ReportService{
		financialRepo: financialRepo,
		statsRepo:     statsRepo,
	}
}

func validateRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewDomainError("INVALID_DATE_RANGE", "End date must not be before start date")
	}
	return nil
}

// GetFinancialSummary returns the per-type ledger totals for the period.
// An empty range yields zeroed totals.
func (s *ReportService) GetFinancialSummary(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*report.FinancialSummary, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("computing financial summary",
		zap.String("tenant_id", tenantID.String()),
		zap.Timep("from", from),
		zap.Timep("to", to),
	)
	return s.financialRepo.GetFinancialSummary(ctx, report.ReportFilter{
		TenantID:  tenantID,
		StartDate: from,
		EndDate:   to,
	})
}

// GetProfitLoss returns income and expenses grouped by category name
func (s *ReportService) GetProfitLoss(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*report.ProfitLoss, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.financialRepo.GetProfitLoss(ctx, report.ReportFilter{
		TenantID:  tenantID,
		StartDate: from,
		EndDate:   to,
	})
}

// GetBalanceSheet returns assets and liabilities grouped by category name
func (s *ReportService) GetBalanceSheet(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*report.BalanceSheet, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.financialRepo.GetBalanceSheet(ctx, report.ReportFilter{
		TenantID:  tenantID,
		StartDate: from,
		EndDate:   to,
	})
}

// GetIncomeStatement returns per-month summaries plus grand totals
func (s *ReportService) GetIncomeStatement(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*report.IncomeStatement, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.financialRepo.GetIncomeStatement(ctx, report.ReportFilter{
		TenantID:  tenantID,
		StartDate: from,
		EndDate:   to,
	})
}

// GetMonthlyStats returns the dashboard rollup computed from invoices and
// orders rather than the ledger
func (s *ReportService) GetMonthlyStats(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]report.MonthlyStats, error) {
	if to.Before(from) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "End date must not be before start date")
	}
	logger.L(ctx).Debug("computing monthly stats",
		zap.String("tenant_id", tenantID.String()),
		zap.Time("from", from),
		zap.Time("to", to),
	)
	return s.statsRepo.GetMonthlyStats(ctx, report.StatsFilter{
		TenantID:  tenantID,
		StartDate: from,
		EndDate:   to,
	})
}
