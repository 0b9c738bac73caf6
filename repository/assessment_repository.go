package repository

import (
	"context"
	"errors"
	"fmt"

	"ergocare-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAssessmentNotFound is returned when no assessment has the requested ID
var ErrAssessmentNotFound = errors.New("assessment not found")

// AssessmentRepository handles database operations for assessments
type AssessmentRepository struct {
	db *pgxpool.Pool
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts a scored assessment
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Domains == nil {
		a.Domains = []string{}
	}

	query := `
		INSERT INTO assessments (
			id, status, risk_label, confidence_score, primary_driver,
			risk_indices, probabilities, retrieval_domains, report_text, report_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		a.ID,
		string(a.Status),
		string(a.RiskLabel),
		a.ConfidenceScore,
		string(a.PrimaryDriver),
		a.Indices,
		a.Probabilities,
		a.Domains,
		a.ReportText,
		a.ReportPath,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// GetByID retrieves an assessment by ID
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Assessment, error) {
	a := &models.Assessment{}
	var status, label, primary string
	query := `
		SELECT id, status, risk_label, confidence_score, primary_driver,
			risk_indices, probabilities, retrieval_domains, report_text, report_path,
			created_at, updated_at
		FROM assessments
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&status,
		&label,
		&a.ConfidenceScore,
		&primary,
		&a.Indices,
		&a.Probabilities,
		&a.Domains,
		&a.ReportText,
		&a.ReportPath,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	a.Status = models.AssessmentStatus(status)
	a.RiskLabel = models.RiskLevel(label)
	a.PrimaryDriver = models.Domain(primary)
	if a.Domains == nil {
		a.Domains = []string{}
	}
	return a, nil
}

// AttachReport stores the generated report and its archive path
func (r *AssessmentRepository) AttachReport(ctx context.Context, id uuid.UUID, text string, path *string) error {
	query := `
		UPDATE assessments SET
			status = $2,
			report_text = $3,
			report_path = $4,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, string(models.AssessmentReported), text, path)
	if err != nil {
		return fmt.Errorf("failed to attach report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssessmentNotFound
	}
	return nil
}
