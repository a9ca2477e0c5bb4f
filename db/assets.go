package db

import (
	"context"
	"database/sql"
	"fmt"

	"linkmonitor/models"
)

const assetColumns = `link_id, site_name, address, model_make, serial_no,
	ip_address1, ip_address2, connectivity, link_bw, discovery_date,
	email_id, project_name, status, first_down_time, last_down_time,
	last_email_sent_time, email_notifications`

// AssetStore is the Postgres-backed asset collaborator. The monitoring
// engine only ever touches the four monitoring-state columns; everything
// else belongs to asset administration.
type AssetStore struct {
	db *sql.DB
}

func NewAssetStore(conn *sql.DB) *AssetStore {
	return &AssetStore{db: conn}
}

func scanAsset(row interface{ Scan(...any) error }) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(
		&a.LinkID, &a.SiteName, &a.Address, &a.ModelMake, &a.SerialNo,
		&a.IPAddress1, &a.IPAddress2, &a.Connectivity, &a.LinkBW, &a.DiscoveryDate,
		&a.EmailID, &a.ProjectName, &a.Status, &a.FirstDownTime, &a.LastDownTime,
		&a.LastEmailSentTime, &a.EmailNotifications,
	)
	return a, err
}

func (s *AssetStore) queryAssets(ctx context.Context, where string, args ...any) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM assets %s ORDER BY link_id", assetColumns, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ListActive returns the probe set for one monitoring pass: Active assets,
// project-filtered unless the scope is an admin.
func (s *AssetStore) ListActive(ctx context.Context, scope models.Scope) ([]models.Asset, error) {
	if scope.Admin {
		return s.queryAssets(ctx, "WHERE status = 'Active'")
	}
	return s.queryAssets(ctx, "WHERE status = 'Active' AND project_name = $1", scope.ProjectName)
}

func (s *AssetStore) List(ctx context.Context, scope models.Scope) ([]models.Asset, error) {
	if scope.Admin {
		return s.queryAssets(ctx, "")
	}
	return s.queryAssets(ctx, "WHERE project_name = $1", scope.ProjectName)
}

func (s *AssetStore) GetByLinkID(ctx context.Context, scope models.Scope, linkID string) (*models.Asset, error) {
	where := "WHERE link_id = $1"
	args := []any{linkID}
	if !scope.Admin {
		where += " AND project_name = $2"
		args = append(args, scope.ProjectName)
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM assets %s", assetColumns, where), args...)
	a, err := scanAsset(row)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveMonitoringState persists the fields the outage tracker and the email
// throttler mutate. It deliberately never writes any other column.
func (s *AssetStore) SaveMonitoringState(ctx context.Context, a *models.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET first_down_time = $2, last_down_time = $3, last_email_sent_time = $4
		WHERE link_id = $1
	`, a.LinkID, a.FirstDownTime, a.LastDownTime, a.LastEmailSentTime)
	if err != nil {
		return fmt.Errorf("save monitoring state for %s: %w", a.LinkID, err)
	}
	return nil
}

func (s *AssetStore) UpdateStatus(ctx context.Context, linkID, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE assets SET status = $2 WHERE link_id = $1", linkID, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns how many assets exist in scope, any status.
func (s *AssetStore) Count(ctx context.Context, scope models.Scope) (int, error) {
	query := "SELECT COUNT(*) FROM assets"
	var args []any
	if !scope.Admin {
		query += " WHERE project_name = $1"
		args = append(args, scope.ProjectName)
	}
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// SetAllEmailNotifications flips the alert opt-in flag for every asset in
// scope at once.
func (s *AssetStore) SetAllEmailNotifications(ctx context.Context, scope models.Scope, enabled bool) error {
	if scope.Admin {
		_, err := s.db.ExecContext(ctx, "UPDATE assets SET email_notifications = $1", enabled)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE assets SET email_notifications = $1 WHERE project_name = $2", enabled, scope.ProjectName)
	return err
}
