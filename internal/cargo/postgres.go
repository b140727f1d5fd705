package cargo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"freightdesk.org/internal/auth"
	"freightdesk.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store on the cargo PostgreSQL database.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Inquiries(context.Context) InquiryStore   { return &inquiryStore{db: s.db} }
func (s *PGStore) Rates(context.Context) RateStore          { return &rateStore{db: s.db} }
func (s *PGStore) SalesCalls(context.Context) SalesCallStore { return &salesCallStore{db: s.db} }

// setBuilder collects "col = $n" fragments for a partial update.
type setBuilder struct {
	sets []string
	args []any
}

func (b *setBuilder) add(expr string, v any) {
	b.args = append(b.args, v)
	b.sets = append(b.sets, fmt.Sprintf(expr, len(b.args)))
}

func (b *setBuilder) exec(ctx context.Context, db *sql.DB, table, id string) error {
	if len(b.sets) == 0 {
		return nil
	}
	b.sets = append(b.sets, "updated_at = now()")
	b.args = append(b.args, id)
	query := fmt.Sprintf(`update %s set %s where id = $%d`,
		table, strings.Join(b.sets, ", "), len(b.args))
	res, err := db.ExecContext(ctx, query, b.args...)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func deleteRow(ctx context.Context, db *sql.DB, table, id string) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf(`delete from %s where id = $1`, table), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// Inquiries -----------------------------------------------------------------

type inquiryStore struct{ db *sql.DB }

const inquiryColumns = `id, organization_id, created_by, customer_name, origin_port, destination_port, cargo_description, weight_kg, target_date, status, notes, created_at, updated_at`

func (s *inquiryStore) Create(ctx context.Context, in *Inquiry) error {
	if in.ID == "" {
		in.ID = ids.New()
	}
	return s.db.QueryRowContext(ctx, `
		insert into inquiries
			(id, organization_id, created_by, customer_name, origin_port, destination_port,
			 cargo_description, weight_kg, target_date, status, notes)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		returning created_at, updated_at
	`, in.ID, in.OrganizationID, in.CreatedBy, in.CustomerName, in.OriginPort, in.DestinationPort,
		in.CargoDescription, in.WeightKg, in.TargetDate, in.Status, in.Notes).
		Scan(&in.CreatedAt, &in.UpdatedAt)
}

func scanInquiry(row interface{ Scan(...any) error }) (*Inquiry, error) {
	var (
		in     Inquiry
		target sql.NullTime
	)
	if err := row.Scan(&in.ID, &in.OrganizationID, &in.CreatedBy, &in.CustomerName,
		&in.OriginPort, &in.DestinationPort, &in.CargoDescription, &in.WeightKg,
		&target, &in.Status, &in.Notes, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	if target.Valid {
		t := target.Time
		in.TargetDate = &t
	}
	return &in, nil
}

func (s *inquiryStore) Find(ctx context.Context, id string) (*Inquiry, error) {
	in, err := scanInquiry(s.db.QueryRowContext(ctx,
		`select `+inquiryColumns+` from inquiries where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	return in, err
}

func (s *inquiryStore) List(ctx context.Context, orgID string) ([]*Inquiry, error) {
	query := `select ` + inquiryColumns + ` from inquiries`
	var args []any
	if orgID != "" {
		query += ` where organization_id = $1`
		args = append(args, orgID)
	}
	query += ` order by created_at desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Inquiry
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, in)
	}
	return result, rows.Err()
}

func (s *inquiryStore) Update(ctx context.Context, id string, upd InquiryUpdate) (*Inquiry, error) {
	var b setBuilder
	if upd.CustomerName != nil {
		b.add("customer_name = $%d", *upd.CustomerName)
	}
	if upd.OriginPort != nil {
		b.add("origin_port = $%d", *upd.OriginPort)
	}
	if upd.DestinationPort != nil {
		b.add("destination_port = $%d", *upd.DestinationPort)
	}
	if upd.CargoDescription != nil {
		b.add("cargo_description = $%d", *upd.CargoDescription)
	}
	if upd.WeightKg != nil {
		b.add("weight_kg = $%d", *upd.WeightKg)
	}
	if upd.TargetDate != nil {
		b.add("target_date = $%d", *upd.TargetDate)
	}
	if upd.Status != nil {
		b.add("status = $%d", *upd.Status)
	}
	if upd.Notes != nil {
		b.add("notes = $%d", *upd.Notes)
	}
	if err := b.exec(ctx, s.db, "inquiries", id); err != nil {
		return nil, err
	}
	return s.Find(ctx, id)
}

func (s *inquiryStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "inquiries", id)
}

// Rates ---------------------------------------------------------------------

type rateStore struct{ db *sql.DB }

const rateColumns = `id, organization_id, created_by, origin_port, destination_port, carrier, container_type, amount_minor, currency, valid_from, valid_until, notes, created_at, updated_at`

func (s *rateStore) Create(ctx context.Context, r *Rate) error {
	if r.ID == "" {
		r.ID = ids.New()
	}
	return s.db.QueryRowContext(ctx, `
		insert into rates
			(id, organization_id, created_by, origin_port, destination_port, carrier,
			 container_type, amount_minor, currency, valid_from, valid_until, notes)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		returning created_at, updated_at
	`, r.ID, r.OrganizationID, r.CreatedBy, r.OriginPort, r.DestinationPort, r.Carrier,
		r.ContainerType, r.AmountMinor, r.Currency, r.ValidFrom, r.ValidUntil, r.Notes).
		Scan(&r.CreatedAt, &r.UpdatedAt)
}

func scanRate(row interface{ Scan(...any) error }) (*Rate, error) {
	var (
		r     Rate
		from  sql.NullTime
		until sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.OrganizationID, &r.CreatedBy, &r.OriginPort, &r.DestinationPort,
		&r.Carrier, &r.ContainerType, &r.AmountMinor, &r.Currency, &from, &until,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if from.Valid {
		t := from.Time
		r.ValidFrom = &t
	}
	if until.Valid {
		t := until.Time
		r.ValidUntil = &t
	}
	return &r, nil
}

func (s *rateStore) Find(ctx context.Context, id string) (*Rate, error) {
	r, err := scanRate(s.db.QueryRowContext(ctx,
		`select `+rateColumns+` from rates where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	return r, err
}

func (s *rateStore) List(ctx context.Context, orgID string) ([]*Rate, error) {
	query := `select ` + rateColumns + ` from rates`
	var args []any
	if orgID != "" {
		query += ` where organization_id = $1`
		args = append(args, orgID)
	}
	query += ` order by created_at desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Rate
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *rateStore) Update(ctx context.Context, id string, upd RateUpdate) (*Rate, error) {
	var b setBuilder
	if upd.OriginPort != nil {
		b.add("origin_port = $%d", *upd.OriginPort)
	}
	if upd.DestinationPort != nil {
		b.add("destination_port = $%d", *upd.DestinationPort)
	}
	if upd.Carrier != nil {
		b.add("carrier = $%d", *upd.Carrier)
	}
	if upd.ContainerType != nil {
		b.add("container_type = $%d", *upd.ContainerType)
	}
	if upd.AmountMinor != nil {
		b.add("amount_minor = $%d", *upd.AmountMinor)
	}
	if upd.Currency != nil {
		b.add("currency = $%d", *upd.Currency)
	}
	if upd.ValidFrom != nil {
		b.add("valid_from = $%d", *upd.ValidFrom)
	}
	if upd.ValidUntil != nil {
		b.add("valid_until = $%d", *upd.ValidUntil)
	}
	if upd.Notes != nil {
		b.add("notes = $%d", *upd.Notes)
	}
	if err := b.exec(ctx, s.db, "rates", id); err != nil {
		return nil, err
	}
	return s.Find(ctx, id)
}

func (s *rateStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "rates", id)
}

// Sales calls ---------------------------------------------------------------

type salesCallStore struct{ db *sql.DB }

const salesCallColumns = `id, organization_id, created_by, company, contact_name, contact_phone, contact_email, call_date, summary, follow_up_date, created_at, updated_at`

func (s *salesCallStore) Create(ctx context.Context, c *SalesCall) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	return s.db.QueryRowContext(ctx, `
		insert into sales_calls
			(id, organization_id, created_by, company, contact_name, contact_phone,
			 contact_email, call_date, summary, follow_up_date)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		returning created_at, updated_at
	`, c.ID, c.OrganizationID, c.CreatedBy, c.Company, c.ContactName, c.ContactPhone,
		c.ContactEmail, c.CallDate, c.Summary, c.FollowUpDate).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func scanSalesCall(row interface{ Scan(...any) error }) (*SalesCall, error) {
	var (
		c        SalesCall
		called   sql.NullTime
		followUp sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.OrganizationID, &c.CreatedBy, &c.Company, &c.ContactName,
		&c.ContactPhone, &c.ContactEmail, &called, &c.Summary, &followUp,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if called.Valid {
		t := called.Time
		c.CallDate = &t
	}
	if followUp.Valid {
		t := followUp.Time
		c.FollowUpDate = &t
	}
	return &c, nil
}

func (s *salesCallStore) Find(ctx context.Context, id string) (*SalesCall, error) {
	c, err := scanSalesCall(s.db.QueryRowContext(ctx,
		`select `+salesCallColumns+` from sales_calls where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	return c, err
}

func (s *salesCallStore) List(ctx context.Context, orgID string) ([]*SalesCall, error) {
	query := `select ` + salesCallColumns + ` from sales_calls`
	var args []any
	if orgID != "" {
		query += ` where organization_id = $1`
		args = append(args, orgID)
	}
	query += ` order by created_at desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*SalesCall
	for rows.Next() {
		c, err := scanSalesCall(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *salesCallStore) Update(ctx context.Context, id string, upd SalesCallUpdate) (*SalesCall, error) {
	var b setBuilder
	if upd.Company != nil {
		b.add("company = $%d", *upd.Company)
	}
	if upd.ContactName != nil {
		b.add("contact_name = $%d", *upd.ContactName)
	}
	if upd.ContactPhone != nil {
		b.add("contact_phone = $%d", *upd.ContactPhone)
	}
	if upd.ContactEmail != nil {
		b.add("contact_email = $%d", *upd.ContactEmail)
	}
	if upd.CallDate != nil {
		b.add("call_date = $%d", *upd.CallDate)
	}
	if upd.Summary != nil {
		b.add("summary = $%d", *upd.Summary)
	}
	if upd.FollowUpDate != nil {
		b.add("follow_up_date = $%d", *upd.FollowUpDate)
	}
	if err := b.exec(ctx, s.db, "sales_calls", id); err != nil {
		return nil, err
	}
	return s.Find(ctx, id)
}

func (s *salesCallStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "sales_calls", id)
}
