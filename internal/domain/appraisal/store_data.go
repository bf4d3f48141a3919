package appraisal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pgx-backed implementation of StoreAPI.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateAppraisal(ctx context.Context, a Appraisal) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO appraisals (tenant_id, appraisee_id, appraiser_id, reviewer_id, appraisal_type, period_start, period_end, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		a.TenantID, a.AppraiseeID, a.AppraiserID, a.ReviewerID, a.Type, a.PeriodStart, a.PeriodEnd, a.Status, a.Version,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create appraisal: %w", err)
	}
	return id, nil
}

func (s *Store) GetAppraisal(ctx context.Context, tenantID, id string) (Appraisal, error) {
	var a Appraisal
	err := s.DB.QueryRow(ctx, `
		SELECT id, tenant_id, appraisee_id, appraiser_id, reviewer_id, appraisal_type, period_start, period_end,
		       status, version, appraiser_rating, appraiser_comment, reviewer_rating, reviewer_comment,
		       created_at, updated_at
		FROM appraisals
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&a.ID, &a.TenantID, &a.AppraiseeID, &a.AppraiserID, &a.ReviewerID, &a.Type, &a.PeriodStart, &a.PeriodEnd,
		&a.Status, &a.Version, &a.AppraiserOverall.Rating, &a.AppraiserOverall.Comment, &a.ReviewerOverall.Rating, &a.ReviewerOverall.Comment,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appraisal{}, fmt.Errorf("%w: appraisal %s", ErrNotFound, id)
	}
	if err != nil {
		return Appraisal{}, fmt.Errorf("get appraisal: %w", err)
	}
	goals, err := s.goalsFor(ctx, tenantID, id)
	if err != nil {
		return Appraisal{}, err
	}
	a.Goals = goals
	return a, nil
}

func (s *Store) goalsFor(ctx context.Context, tenantID, appraisalID string) ([]Goal, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, appraisal_id, title, description, importance, performance_factor, weightage, categories,
		       self_rating, self_comment, appraiser_rating, appraiser_comment, created_at
		FROM appraisal_goals
		WHERE tenant_id = $1 AND appraisal_id = $2
		ORDER BY id`,
		tenantID, appraisalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(
			&g.ID, &g.AppraisalID, &g.Title, &g.Description, &g.Importance, &g.PerformanceFactor, &g.Weightage, &g.Categories,
			&g.Self.Rating, &g.Self.Comment, &g.Appraiser.Rating, &g.Appraiser.Comment, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) ListAppraisals(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Appraisal, int, error) {
	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if employeeID != "" {
		where += ` AND (appraisee_id = $2 OR appraiser_id = $2 OR reviewer_id = $2)`
		args = append(args, employeeID)
	}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM appraisals `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appraisals: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, appraisee_id, appraiser_id, reviewer_id, appraisal_type, period_start, period_end,
		       status, version, appraiser_rating, appraiser_comment, reviewer_rating, reviewer_comment,
		       created_at, updated_at
		FROM appraisals %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appraisals: %w", err)
	}
	defer rows.Close()

	var out []Appraisal
	for rows.Next() {
		var a Appraisal
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.AppraiseeID, &a.AppraiserID, &a.ReviewerID, &a.Type, &a.PeriodStart, &a.PeriodEnd,
			&a.Status, &a.Version, &a.AppraiserOverall.Rating, &a.AppraiserOverall.Comment, &a.ReviewerOverall.Rating, &a.ReviewerOverall.Comment,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan appraisal: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (s *Store) DeleteDraft(ctx context.Context, tenantID, id string, version int) error {
	tag, err := s.DB.Exec(ctx, `
		DELETE FROM appraisals
		WHERE tenant_id = $1 AND id = $2 AND version = $3 AND status = $4`,
		tenantID, id, version, StatusDraft,
	)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// bumpVersion asserts the expected version and required status, then
// advances the version. Zero rows touched means another writer got there
// first or the appraisal moved on.
func bumpVersion(ctx context.Context, tx pgx.Tx, tenantID, appraisalID string, version int, status Status) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appraisals SET version = version + 1, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND version = $3 AND status = $4`,
		tenantID, appraisalID, version, status,
	)
	if err != nil {
		return fmt.Errorf("bump version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Store) AddGoals(ctx context.Context, tenantID, appraisalID string, version int, goals []Goal) ([]string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin add goals: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := bumpVersion(ctx, tx, tenantID, appraisalID, version, StatusDraft); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(goals))
	for _, g := range goals {
		var id string
		err := tx.QueryRow(ctx, `
			INSERT INTO appraisal_goals (tenant_id, appraisal_id, title, description, importance, performance_factor, weightage, categories)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			tenantID, appraisalID, g.Title, g.Description, g.Importance, g.PerformanceFactor, g.Weightage, g.Categories,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert goal: %w", err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit add goals: %w", err)
	}
	return ids, nil
}

func (s *Store) UpdateGoal(ctx context.Context, tenantID, appraisalID, goalID string, version int, fields GoalFields) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update goal: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := bumpVersion(ctx, tx, tenantID, appraisalID, version, StatusDraft); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE appraisal_goals
		SET title = $1, description = $2, importance = $3, performance_factor = $4, weightage = $5, categories = $6
		WHERE tenant_id = $7 AND appraisal_id = $8 AND id = $9`,
		fields.Title, fields.Description, fields.Importance, fields.PerformanceFactor, fields.Weightage, fields.Categories,
		tenantID, appraisalID, goalID,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteGoal(ctx context.Context, tenantID, appraisalID, goalID string, version int) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete goal: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := bumpVersion(ctx, tx, tenantID, appraisalID, version, StatusDraft); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		DELETE FROM appraisal_goals
		WHERE tenant_id = $1 AND appraisal_id = $2 AND id = $3`,
		tenantID, appraisalID, goalID,
	)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	return tx.Commit(ctx)
}

func (s *Store) CommitTransition(ctx context.Context, tenantID, id string, version int, commit TransitionCommit) error {
	if len(commit.Statuses) == 0 {
		return fmt.Errorf("%w: transition commit carries no statuses", ErrValidation)
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	final := commit.Statuses[len(commit.Statuses)-1]
	tag, err := tx.Exec(ctx, `
		UPDATE appraisals SET status = $1, version = version + 1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND version = $4`,
		final, tenantID, id, version,
	)
	if err != nil {
		return fmt.Errorf("advance status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	if commit.AppraiserOverall != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE appraisals SET appraiser_rating = $1, appraiser_comment = $2
			WHERE tenant_id = $3 AND id = $4`,
			commit.AppraiserOverall.Rating, commit.AppraiserOverall.Comment, tenantID, id,
		); err != nil {
			return fmt.Errorf("write appraiser overall: %w", err)
		}
	}
	if commit.ReviewerOverall != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE appraisals SET reviewer_rating = $1, reviewer_comment = $2
			WHERE tenant_id = $3 AND id = $4`,
			commit.ReviewerOverall.Rating, commit.ReviewerOverall.Comment, tenantID, id,
		); err != nil {
			return fmt.Errorf("write reviewer overall: %w", err)
		}
	}
	if err := writeGoalEvaluations(ctx, tx, tenantID, id, commit.SelfEvaluations, "self_rating", "self_comment"); err != nil {
		return err
	}
	if err := writeGoalEvaluations(ctx, tx, tenantID, id, commit.AppraiserEvaluations, "appraiser_rating", "appraiser_comment"); err != nil {
		return err
	}

	from, _ := commit.Statuses[0].Prev()
	for _, to := range commit.Statuses {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appraisal_status_history (tenant_id, appraisal_id, from_status, to_status, actor_id)
			VALUES ($1, $2, $3, $4, $5)`,
			tenantID, id, from, to, commit.ActorID,
		); err != nil {
			return fmt.Errorf("record status change: %w", err)
		}
		from = to
	}
	return tx.Commit(ctx)
}

func writeGoalEvaluations(ctx context.Context, tx pgx.Tx, tenantID, appraisalID string, writes []GoalEvaluation, ratingCol, commentCol string) error {
	if len(writes) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE appraisal_goals SET %s = $1, %s = $2
		WHERE tenant_id = $3 AND appraisal_id = $4 AND id = $5`, ratingCol, commentCol)
	for _, w := range writes {
		tag, err := tx.Exec(ctx, query, w.Rating, w.Comment, tenantID, appraisalID, w.GoalID)
		if err != nil {
			return fmt.Errorf("write goal evaluation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrGoalNotFound, w.GoalID)
		}
	}
	return nil
}

func (s *Store) History(ctx context.Context, tenantID, appraisalID string) ([]StatusChange, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, appraisal_id, from_status, to_status, actor_id, created_at
		FROM appraisal_status_history
		WHERE tenant_id = $1 AND appraisal_id = $2
		ORDER BY seq`,
		tenantID, appraisalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var out []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.ID, &c.AppraisalID, &c.FromStatus, &c.ToStatus, &c.ActorID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("employee by user: %w", err)
	}
	return id, nil
}

func (s *Store) EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		SELECT user_id FROM employees WHERE tenant_id = $1 AND id = $2`,
		tenantID, employeeID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("employee user id: %w", err)
	}
	return id, nil
}

func (s *Store) EmployeeName(ctx context.Context, tenantID, employeeID string) (string, error) {
	var first, last string
	err := s.DB.QueryRow(ctx, `
		SELECT first_name, last_name FROM employees WHERE tenant_id = $1 AND id = $2`,
		tenantID, employeeID,
	).Scan(&first, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("employee name: %w", err)
	}
	return first + " " + last, nil
}
