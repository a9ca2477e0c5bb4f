package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"linkmonitor/models"
)

const ticketColumns = `sr_no, ticket_no, site_name, link_id, problem_code,
	status, down_timer, up_timer, rfo, assigned_by, assigned_for,
	created_by, created_date, last_update_by, COALESCE(last_update_date, ''),
	project_name`

// TicketStore is the Postgres-backed ticket collaborator.
type TicketStore struct {
	db *sql.DB
}

func NewTicketStore(conn *sql.DB) *TicketStore {
	return &TicketStore{db: conn}
}

func scanTicket(row interface{ Scan(...any) error }) (models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.SrNo, &t.TicketNo, &t.SiteName, &t.LinkID, &t.ProblemCode,
		&t.Status, &t.DownTimer, &t.UpTimer, &t.RFO, &t.AssignedBy, &t.AssignedFor,
		&t.CreatedBy, &t.CreatedDate, &t.LastUpdateBy, &t.LastUpdateDate,
		&t.ProjectName,
	)
	return t, err
}

func (s *TicketStore) queryTickets(ctx context.Context, where string, args ...any) ([]models.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM tickets %s", ticketColumns, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// NextSrNo allocates the next ticket serial number. The sequence hands every
// concurrent caller a distinct value, which is the whole point: the serial
// must never be derived from the current maximum.
func (s *TicketStore) NextSrNo(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT nextval('ticket_sr_seq')").Scan(&n); err != nil {
		return 0, fmt.Errorf("ticket sequence: %w", err)
	}
	return n, nil
}

// SyncSequence advances ticket_sr_seq past any serial already present in the
// tickets table, so imported data cannot collide with newly issued numbers.
func (s *TicketStore) SyncSequence(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		SELECT setval('ticket_sr_seq', max_sr, true)
		FROM (SELECT MAX(sr_no) AS max_sr FROM tickets) m
		WHERE m.max_sr IS NOT NULL
	`)
	return err
}

// FindOpenByLinkID returns the open tickets for one link, newest serial
// first. "Open" is anything a human has not closed; correct find-or-create
// usage keeps this at zero or one row.
func (s *TicketStore) FindOpenByLinkID(ctx context.Context, linkID string) ([]models.Ticket, error) {
	return s.queryTickets(ctx,
		"WHERE link_id = $1 AND status <> 'Closed' ORDER BY sr_no DESC", linkID)
}

// FindLatest returns the in-scope ticket bearing the highest serial number,
// or nil when no tickets exist.
func (s *TicketStore) FindLatest(ctx context.Context, scope models.Scope) (*models.Ticket, error) {
	where := ""
	var args []any
	if !scope.Admin {
		where = "WHERE project_name = $1"
		args = append(args, scope.ProjectName)
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM tickets %s ORDER BY sr_no DESC LIMIT 1", ticketColumns, where), args...)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TicketStore) Insert(ctx context.Context, t *models.Ticket) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (sr_no, ticket_no, site_name, link_id, problem_code,
			status, down_timer, up_timer, rfo, assigned_by, assigned_for,
			created_by, created_date, last_update_by, last_update_date, project_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''), $16)
	`, t.SrNo, t.TicketNo, t.SiteName, t.LinkID, t.ProblemCode,
		t.Status, t.DownTimer, t.UpTimer, t.RFO, t.AssignedBy, t.AssignedFor,
		t.CreatedBy, t.CreatedDate, t.LastUpdateBy, t.LastUpdateDate, t.ProjectName)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.TicketNo, err)
	}
	return nil
}

func (s *TicketStore) UpdateDownTimer(ctx context.Context, ticketNo, timer string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tickets SET down_timer = $2 WHERE ticket_no = $1", ticketNo, timer)
	return err
}

func (s *TicketStore) UpdateUpTimer(ctx context.Context, ticketNo, timer string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tickets SET up_timer = $2 WHERE ticket_no = $1", ticketNo, timer)
	return err
}

func (s *TicketStore) List(ctx context.Context, scope models.Scope) ([]models.Ticket, error) {
	if scope.Admin {
		return s.queryTickets(ctx, "ORDER BY sr_no")
	}
	return s.queryTickets(ctx, "WHERE project_name = $1 ORDER BY sr_no", scope.ProjectName)
}

func (s *TicketStore) GetByTicketNo(ctx context.Context, scope models.Scope, ticketNo string) (*models.Ticket, error) {
	where := "WHERE ticket_no = $1"
	args := []any{ticketNo}
	if !scope.Admin {
		where += " AND project_name = $2"
		args = append(args, scope.ProjectName)
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM tickets %s", ticketColumns, where), args...)
	t, err := scanTicket(row)
	if err != nil {
		return nil, err
	}

	updates, err := s.listUpdates(ctx, t.TicketNo)
	if err != nil {
		return nil, err
	}
	t.Updates = updates
	return &t, nil
}

func (s *TicketStore) listUpdates(ctx context.Context, ticketNo string) ([]models.TicketUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_no, problem_code, status, rfo, assigned_by,
			assigned_for, last_update_by, last_update_date
		FROM ticket_updates WHERE ticket_no = $1 ORDER BY id
	`, ticketNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []models.TicketUpdate
	for rows.Next() {
		var u models.TicketUpdate
		if err := rows.Scan(&u.ID, &u.TicketNo, &u.ProblemCode, &u.Status, &u.RFO,
			&u.AssignedBy, &u.AssignedFor, &u.LastUpdateBy, &u.LastUpdateDate); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// ApplyWorkflowUpdate appends a snapshot to the ticket's update log and
// writes the new workflow field values. This is the only path that may
// change a ticket's Status; the monitoring engine never does.
func (s *TicketStore) ApplyWorkflowUpdate(ctx context.Context, ticketNo string, u models.TicketUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ticket_updates (ticket_no, problem_code, status, rfo,
			assigned_by, assigned_for, last_update_by, last_update_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ticketNo, u.ProblemCode, u.Status, u.RFO, u.AssignedBy, u.AssignedFor,
		u.LastUpdateBy, u.LastUpdateDate)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tickets
		SET problem_code = $2, status = $3, rfo = $4, assigned_by = $5,
			assigned_for = $6, last_update_by = $7, last_update_date = $8
		WHERE ticket_no = $1
	`, ticketNo, u.ProblemCode, u.Status, u.RFO, u.AssignedBy, u.AssignedFor,
		u.LastUpdateBy, u.LastUpdateDate)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// CountByDay groups ticket creation counts per calendar day since the given
// cutoff. created_date is stored in display format, so the day key is its
// ten-character date prefix.
func (s *TicketStore) CountByDay(ctx context.Context, scope models.Scope, since time.Time) (map[string]int, error) {
	query := `
		SELECT substring(created_date FROM 1 FOR 10) AS day, COUNT(*)
		FROM tickets
		WHERE to_date(substring(created_date FROM 1 FOR 10), 'DD-MM-YYYY') >= $1`
	args := []any{since}
	if !scope.Admin {
		query += " AND project_name = $2"
		args = append(args, scope.ProjectName)
	}
	query += " GROUP BY day"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

// CountByStatus backs the dashboard counters (open = not Closed,
// pending = Status Pending).
func (s *TicketStore) CountByStatus(ctx context.Context, scope models.Scope, status string, exclude bool) (int, error) {
	op := "="
	if exclude {
		op = "<>"
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM tickets WHERE status %s $1", op)
	args := []any{status}
	if !scope.Admin {
		query += " AND project_name = $2"
		args = append(args, scope.ProjectName)
	}
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
