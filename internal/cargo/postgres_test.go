package cargo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"freightdesk.org/internal/auth"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewPGStore(db), mock
}

func TestPGInquiryCreateReturnsTimestamps(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`insert into inquiries`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	in := &Inquiry{
		OrganizationID:  "org1",
		CreatedBy:       "u1",
		CustomerName:    "Nordic Steel",
		OriginPort:      "SEGOT",
		DestinationPort: "CNSHA",
		Status:          InquiryStatusOpen,
	}
	if err := store.Inquiries(context.Background()).Create(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if in.ID == "" {
		t.Fatalf("id not assigned")
	}
	if !in.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", in.CreatedAt, now)
	}
}

func TestPGInquiryListFiltersByOrg(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`from inquiries where organization_id = $1 order by created_at desc`)).
		WithArgs("org1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "created_by", "customer_name", "origin_port", "destination_port",
			"cargo_description", "weight_kg", "target_date", "status", "notes", "created_at", "updated_at",
		}).AddRow("i1", "org1", "u1", "Nordic Steel", "SEGOT", "CNSHA",
			"coils", 18500.0, nil, InquiryStatusOpen, "", now, now))

	list, err := store.Inquiries(context.Background()).List(context.Background(), "org1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "i1" || list[0].TargetDate != nil {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPGRateUpdatePartialSet(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`update rates set amount_minor = $1, currency = $2, updated_at = now() where id = $3`)).
		WithArgs(int64(199000), "EUR", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`from rates where id = $1`)).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "created_by", "origin_port", "destination_port", "carrier",
			"container_type", "amount_minor", "currency", "valid_from", "valid_until", "notes",
			"created_at", "updated_at",
		}).AddRow("r1", "org1", "u1", "SEGOT", "CNSHA", "Maersk",
			"40HC", int64(199000), "EUR", nil, nil, "", now, now))

	amount := int64(199000)
	currency := "EUR"
	rate, err := store.Rates(context.Background()).
		Update(context.Background(), "r1", RateUpdate{AmountMinor: &amount, Currency: &currency})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rate.AmountMinor != 199000 || rate.Currency != "EUR" {
		t.Fatalf("unexpected rate %+v", rate)
	}
}

func TestPGSalesCallDeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`delete from sales_calls where id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.SalesCalls(context.Background()).Delete(context.Background(), "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
