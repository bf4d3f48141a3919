package template

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"appraisal/internal/domain/appraisal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// List returns the tenant's full template catalog.
func (s *Store) List(ctx context.Context, tenantID string) ([]GoalTemplate, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, title, description, importance, performance_factor, default_weightage, categories, created_at
		FROM goal_templates
		WHERE tenant_id = $1
		ORDER BY title`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goal templates: %w", err)
	}
	defer rows.Close()

	var out []GoalTemplate
	for rows.Next() {
		var t GoalTemplate
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Importance, &t.PerformanceFactor, &t.DefaultWeightage, &t.Categories, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TemplatesByIDs resolves a set of template IDs for goal import. Missing IDs
// simply yield fewer rows; the caller decides whether that is an error.
func (s *Store) TemplatesByIDs(ctx context.Context, tenantID string, ids []string) ([]appraisal.GoalTemplate, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, title, description, importance, performance_factor, default_weightage, categories
		FROM goal_templates
		WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve goal templates: %w", err)
	}
	defer rows.Close()

	var out []appraisal.GoalTemplate
	for rows.Next() {
		var t appraisal.GoalTemplate
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Importance, &t.PerformanceFactor, &t.DefaultWeightage, &t.Categories); err != nil {
			return nil, fmt.Errorf("scan goal template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
