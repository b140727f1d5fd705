package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store on the auth-schema PostgreSQL database.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, e *Entry) error {
	var details []byte
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		details = raw
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_logs
			(id, action, resource_type, resource_id, description, details,
			 user_id, organization_id, ip_address, user_agent, created_at)
		values ($1,$2,$3,nullif($4,''),$5,$6,nullif($7,''),nullif($8,''),$9,$10,$11)
	`, e.ID, string(e.Action), e.ResourceType, e.ResourceID, e.Description, details,
		e.UserID, e.OrganizationID, e.IPAddress, e.UserAgent, e.CreatedAt)
	return err
}

// buildWhere renders the query criteria into a WHERE clause. Restrict fields
// are ANDed with caller filters so filters cannot widen visibility.
func buildWhere(q Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if q.RestrictUserID != "" {
		add("user_id = $%d", q.RestrictUserID)
	}
	if q.RestrictOrgID != "" {
		add("organization_id = $%d", q.RestrictOrgID)
	}
	if q.Action != "" {
		add("action = $%d", string(q.Action))
	}
	if q.ResourceType != "" {
		add("resource_type = $%d", q.ResourceType)
	}
	if q.UserID != "" {
		add("user_id = $%d", q.UserID)
	}
	if q.OrganizationID != "" {
		add("organization_id = $%d", q.OrganizationID)
	}
	if q.From != nil {
		add("created_at >= $%d", *q.From)
	}
	if q.To != nil {
		add("created_at <= $%d", *q.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " where " + strings.Join(conds, " and "), args
}

func (s *PGStore) List(ctx context.Context, q Query) ([]Entry, int64, error) {
	where, args := buildWhere(q)

	var total int64
	if err := s.db.QueryRowContext(ctx, `select count(*) from audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		select id, action, resource_type, resource_id, description, details,
		       user_id, organization_id, ip_address, user_agent, created_at
		from audit_logs` + where + `
		order by created_at desc, id desc`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" limit $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" offset $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *PGStore) Get(ctx context.Context, q Query, id string) (*Entry, error) {
	where, args := buildWhere(q)
	args = append(args, id)
	cond := fmt.Sprintf("id = $%d", len(args))
	if where == "" {
		where = " where " + cond
	} else {
		where += " and " + cond
	}
	row := s.db.QueryRowContext(ctx, `
		select id, action, resource_type, resource_id, description, details,
		       user_id, organization_id, ip_address, user_agent, created_at
		from audit_logs`+where, args...)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFoundOrDenied
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PGStore) Stats(ctx context.Context, q Query, since time.Time) (Stats, error) {
	where, args := buildWhere(q)

	stats := Stats{
		ByAction:       map[string]int64{},
		ByResourceType: map[string]int64{},
	}
	if err := s.db.QueryRowContext(ctx, `select count(*) from audit_logs`+where, args...).Scan(&stats.Total); err != nil {
		return Stats{}, err
	}

	todayArgs := append(append([]any{}, args...), since)
	todayWhere := where
	cond := fmt.Sprintf("created_at >= $%d", len(todayArgs))
	if todayWhere == "" {
		todayWhere = " where " + cond
	} else {
		todayWhere += " and " + cond
	}
	if err := s.db.QueryRowContext(ctx, `select count(*) from audit_logs`+todayWhere, todayArgs...).Scan(&stats.Today); err != nil {
		return Stats{}, err
	}

	if err := s.groupCount(ctx, "action", where, args, stats.ByAction); err != nil {
		return Stats{}, err
	}
	if err := s.groupCount(ctx, "resource_type", where, args, stats.ByResourceType); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *PGStore) groupCount(ctx context.Context, column, where string, args []any, out map[string]int64) error {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`select %s, count(*) from audit_logs%s group by %s`, column, where, column), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		out[key] = count
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e          Entry
		action     string
		resourceID sql.NullString
		details    []byte
		userID     sql.NullString
		orgID      sql.NullString
	)
	if err := row.Scan(&e.ID, &action, &e.ResourceType, &resourceID, &e.Description, &details,
		&userID, &orgID, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Action = Action(action)
	if resourceID.Valid {
		e.ResourceID = resourceID.String
	}
	if userID.Valid {
		e.UserID = userID.String
	}
	if orgID.Valid {
		e.OrganizationID = orgID.String
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("decode details: %w", err)
		}
	}
	return &e, nil
}
