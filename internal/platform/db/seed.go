package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/config"
)

// Seed makes sure the tenant, RBAC rows, the admin account, a small set of
// employees and the goal template catalog exist. Every step is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}

	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool, tenantID)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	if err := ensureUser(ctx, pool, tenantID, roleIDs[auth.RoleHR], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}

	if err := ensureEmployees(ctx, pool, tenantID, roleIDs, cfg.SeedAdminPassword); err != nil {
		return err
	}

	return ensureGoalTemplates(ctx, pool, tenantID)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		_, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, tenantID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE tenant_id = $1 AND name = $2", tenantID, roleName).Scan(&id)
		if err == nil {
			roleIDs[roleName] = id
			continue
		}

		err = pool.QueryRow(ctx, "INSERT INTO roles (tenant_id, name) VALUES ($1, $2) RETURNING id", tenantID, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	permMap := map[string]string{}
	rows, err := pool.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		permMap[key] = id
	}

	for roleName, perms := range auth.RolePermissions {
		roleID := roleIDs[roleName]
		for _, permKey := range perms {
			permID, ok := permMap[permKey]
			if !ok {
				return errors.New("permission not found: " + permKey)
			}
			_, err := pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, tenantID, roleID, email, password string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND email = $2", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}

	if password == "" {
		password = "ChangeMe123!"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (tenant_id, role_id, email, password_hash, status)
    VALUES ($1, $2, $3, $4, $5)
  `, tenantID, roleID, email, hash, auth.UserStatusActive)
	return err
}

type seedEmployee struct {
	email string
	first string
	last  string
	role  string
}

// ensureEmployees gives fresh installs enough people to run a workflow end
// to end: an appraisee, an appraiser and a reviewer.
func ensureEmployees(ctx context.Context, pool *pgxpool.Pool, tenantID string, roleIDs map[string]string, password string) error {
	fixtures := []seedEmployee{
		{email: "alice@example.com", first: "Alice", last: "Nguyen", role: auth.RoleEmployee},
		{email: "bruno@example.com", first: "Bruno", last: "Silva", role: auth.RoleManager},
		{email: "chiara@example.com", first: "Chiara", last: "Rossi", role: auth.RoleManager},
	}

	for _, f := range fixtures {
		if err := ensureUser(ctx, pool, tenantID, roleIDs[f.role], f.email, password); err != nil {
			return err
		}

		var userID string
		if err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND email = $2", tenantID, f.email).Scan(&userID); err != nil {
			return err
		}

		var employeeID string
		err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&employeeID)
		if err == nil {
			continue
		}

		if _, err := pool.Exec(ctx, `
      INSERT INTO employees (tenant_id, user_id, first_name, last_name)
      VALUES ($1, $2, $3, $4)
    `, tenantID, userID, f.first, f.last); err != nil {
			return err
		}
	}
	return nil
}

func ensureGoalTemplates(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	templates := []struct {
		title     string
		desc      string
		factor    string
		weightage int
	}{
		{"Delivery excellence", "Ship planned work on time and at quality", "execution", 40},
		{"Collaboration", "Work effectively across teams", "teamwork", 30},
		{"Professional growth", "Develop a new skill relevant to the role", "development", 30},
	}

	for _, t := range templates {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM goal_templates WHERE tenant_id = $1 AND title = $2", tenantID, t.title).Scan(&id)
		if err == nil {
			continue
		}

		if _, err := pool.Exec(ctx, `
      INSERT INTO goal_templates (tenant_id, title, description, importance, performance_factor, default_weightage, categories)
      VALUES ($1, $2, $3, 'high', $4, $5, $6)
    `, tenantID, t.title, t.desc, t.factor, t.weightage, []string{t.factor}); err != nil {
			return err
		}
	}
	return nil
}
