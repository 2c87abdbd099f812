package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

const (
	organizationColumns = "o.id, o.name, o.created_by, o.wallet_id, o.created_at"
	projectColumns      = "p.id, p.organization_id, p.name, p.active, p.end_date, p.min_per_user, p.max_per_user, " +
		"p.expected_funding, p.currency, p.wallet_id, p.created_by, p.created_at"
)

func (s *Store) InsertOrganization(ctx context.Context, o *model.Organization) error {
	id, err := s.insert(ctx,
		`INSERT INTO organizations (name, created_by, created_at) VALUES (?, ?, ?)`,
		o.Name, o.CreatedBy, o.CreatedAt.UTC())
	if err != nil {
		return classify("database.InsertOrganization", apperr.CodeOrgMissing, err)
	}
	o.ID = id
	return nil
}

func (s *Store) GetOrganization(ctx context.Context, id int64) (*model.Organization, error) {
	var o model.Organization
	if err := s.get(ctx, &o, `SELECT `+organizationColumns+` FROM organizations o WHERE o.id = ?`, id); err != nil {
		return nil, notFound("database.GetOrganization", apperr.CodeOrgMissing, err)
	}
	return &o, nil
}

// ListUnactivatedOrganizations returns organizations whose wallet exists
// but has not been activated yet.
func (s *Store) ListUnactivatedOrganizations(ctx context.Context) ([]model.OrganizationWithWallet, error) {
	var rows []struct {
		model.Organization
		W model.Wallet `db:"w"`
	}
	err := s.list(ctx, &rows,
		`SELECT `+organizationColumns+`, w.id AS "w.id", w.activation_data AS "w.activation_data", w.type AS "w.type",
			w.currency AS "w.currency", w.created_at AS "w.created_at", w.hash AS "w.hash", w.activated_at AS "w.activated_at"
		FROM organizations o JOIN wallets w ON w.id = o.wallet_id
		WHERE w.hash IS NULL ORDER BY o.id`)
	if err != nil {
		return nil, internal("database.ListUnactivatedOrganizations", err)
	}
	out := make([]model.OrganizationWithWallet, 0, len(rows))
	for i := range rows {
		w := rows[i].W
		out = append(out, model.OrganizationWithWallet{Organization: rows[i].Organization, Wallet: &w})
	}
	return out, nil
}

func (s *Store) InsertProject(ctx context.Context, p *model.Project) error {
	id, err := s.insert(ctx,
		`INSERT INTO projects (organization_id, name, active, end_date, min_per_user, max_per_user,
			expected_funding, currency, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.OrganizationID, p.Name, p.Active, p.EndDate.UTC(), p.MinPerUser, p.MaxPerUser,
		p.ExpectedFunding, p.Currency, p.CreatedBy, p.CreatedAt.UTC())
	if err != nil {
		return classify("database.InsertProject", apperr.CodeProjectMissing, err)
	}
	p.ID = id
	return nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	if err := s.get(ctx, &p, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id); err != nil {
		return nil, notFound("database.GetProject", apperr.CodeProjectMissing, err)
	}
	return &p, nil
}

func (s *Store) SetProjectActive(ctx context.Context, id int64, active bool) error {
	n, err := s.exec(ctx, `UPDATE projects SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return internal("database.SetProjectActive", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, apperr.CodeProjectMissing, "database.SetProjectActive", "missing project: %d", id)
	}
	return nil
}

func (s *Store) ListUnactivatedProjects(ctx context.Context) ([]model.ProjectWithWallet, error) {
	var rows []struct {
		model.Project
		W model.Wallet `db:"w"`
	}
	err := s.list(ctx, &rows,
		`SELECT `+projectColumns+`, w.id AS "w.id", w.activation_data AS "w.activation_data", w.type AS "w.type",
			w.currency AS "w.currency", w.created_at AS "w.created_at", w.hash AS "w.hash", w.activated_at AS "w.activated_at"
		FROM projects p JOIN wallets w ON w.id = p.wallet_id
		WHERE w.hash IS NULL ORDER BY p.id`)
	if err != nil {
		return nil, internal("database.ListUnactivatedProjects", err)
	}
	out := make([]model.ProjectWithWallet, 0, len(rows))
	for i := range rows {
		w := rows[i].W
		out = append(out, model.ProjectWithWallet{Project: rows[i].Project, Wallet: &w})
	}
	return out, nil
}

// ProjectsByWalletHashes maps activated project wallet hashes to their projects.
// Hashes without a local project are absent from the result.
func (s *Store) ProjectsByWalletHashes(ctx context.Context, hashes []string) (map[string]model.Project, error) {
	out := make(map[string]model.Project, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(
		`SELECT w.hash AS wallet_hash, `+projectColumns+` FROM projects p JOIN wallets w ON w.id = p.wallet_id WHERE w.hash IN (?)`,
		hashes)
	if err != nil {
		return nil, internal("database.ProjectsByWalletHashes", err)
	}
	var rows []struct {
		WalletHash string `db:"wallet_hash"`
		model.Project
	}
	if err := s.list(ctx, &rows, query, args...); err != nil {
		return nil, internal("database.ProjectsByWalletHashes", err)
	}
	for _, r := range rows {
		out[r.WalletHash] = r.Project
	}
	return out, nil
}
