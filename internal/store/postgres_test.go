package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/roach88/memorychain/internal/ir"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	s := NewWithDB(sqlx.NewDb(db, "postgres"))
	t.Cleanup(func() {
		s.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return s, mock
}

func TestPostgres_Dialect(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectClose()

	if s.Dialect() != DialectPostgres {
		t.Errorf("Dialect() = %q, want %q", s.Dialect(), DialectPostgres)
	}
}

func TestPostgres_GetMintUsesDollarPlaceholders(t *testing.T) {
	s, mock := newMockStore(t)

	mint := ir.Address{7}
	authority := ir.Address{8}
	mock.ExpectQuery(regexp.QuoteMeta("FROM mints WHERE address = $1")).
		WithArgs(mint.String()).
		WillReturnRows(sqlmock.NewRows([]string{"address", "authority", "decimals", "supply"}).
			AddRow(mint.String(), authority.String(), 6, 1000))
	mock.ExpectClose()

	got, err := s.GetMint(context.Background(), mint)
	if err != nil {
		t.Fatalf("GetMint() failed: %v", err)
	}
	if got.Authority != authority || got.Supply != 1000 || got.Decimals != 6 {
		t.Errorf("GetMint() = %+v", got)
	}
}

func TestPostgres_DuplicateReceipt(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectClose()

	err := s.WriteReceipt(context.Background(), testReceipt(1, "req-1", ir.StatusOK))
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("WriteReceipt() error = %v, want ErrDuplicateTransaction", err)
	}
}

func TestPostgres_CreateAccountConflict(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (address) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectClose()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()

	err = tx.CreateAccount(ctx, Account{Address: ir.Address{1}, Owner: ir.Address{2}, Data: []byte{}})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("CreateAccount() error = %v, want ErrAlreadyExists", err)
	}
}
