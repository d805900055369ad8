package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/memorychain/internal/ir"
)

// Account is program-owned data at an address.
type Account struct {
	Address    ir.Address
	Owner      ir.Address // Owning program
	Data       []byte
	CreatedSeq int64
}

// Mint defines a typed balance.
type Mint struct {
	Address   ir.Address
	Authority ir.Address
	Decimals  uint8
	Supply    int64
}

// TokenAccount is a balance of one mint held for an owner.
type TokenAccount struct {
	Address ir.Address
	Mint    ir.Address
	Owner   ir.Address
	Amount  int64
}

type accountRow struct {
	Address    string `db:"address"`
	Owner      string `db:"owner"`
	Data       []byte `db:"data"`
	CreatedSeq int64  `db:"created_seq"`
}

type mintRow struct {
	Address   string `db:"address"`
	Authority string `db:"authority"`
	Decimals  int64  `db:"decimals"`
	Supply    int64  `db:"supply"`
}

type tokenAccountRow struct {
	Address string `db:"address"`
	Mint    string `db:"mint"`
	Owner   string `db:"owner"`
	Amount  int64  `db:"amount"`
}

func (r accountRow) decode() (Account, error) {
	addr, err := ir.ParseAddress(r.Address)
	if err != nil {
		return Account{}, err
	}
	owner, err := ir.ParseAddress(r.Owner)
	if err != nil {
		return Account{}, err
	}
	return Account{Address: addr, Owner: owner, Data: r.Data, CreatedSeq: r.CreatedSeq}, nil
}

func (r mintRow) decode() (Mint, error) {
	addr, err := ir.ParseAddress(r.Address)
	if err != nil {
		return Mint{}, err
	}
	authority, err := ir.ParseAddress(r.Authority)
	if err != nil {
		return Mint{}, err
	}
	return Mint{Address: addr, Authority: authority, Decimals: uint8(r.Decimals), Supply: r.Supply}, nil
}

func (r tokenAccountRow) decode() (TokenAccount, error) {
	addr, err := ir.ParseAddress(r.Address)
	if err != nil {
		return TokenAccount{}, err
	}
	mint, err := ir.ParseAddress(r.Mint)
	if err != nil {
		return TokenAccount{}, err
	}
	owner, err := ir.ParseAddress(r.Owner)
	if err != nil {
		return TokenAccount{}, err
	}
	return TokenAccount{Address: addr, Mint: mint, Owner: owner, Amount: r.Amount}, nil
}

// The helpers below run against either the pool or an open transaction.

func getAccount(ctx context.Context, q queryer, addr ir.Address) (Account, error) {
	var row accountRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`
		SELECT address, owner, data, created_seq FROM accounts WHERE address = ?
	`), addr.String())
	if err != nil {
		return Account{}, noRows(err, fmt.Sprintf("get account %s", addr))
	}
	return row.decode()
}

func getMint(ctx context.Context, q queryer, addr ir.Address) (Mint, error) {
	var row mintRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`
		SELECT address, authority, decimals, supply FROM mints WHERE address = ?
	`), addr.String())
	if err != nil {
		return Mint{}, noRows(err, fmt.Sprintf("get mint %s", addr))
	}
	return row.decode()
}

func getTokenAccount(ctx context.Context, q queryer, addr ir.Address) (TokenAccount, error) {
	var row tokenAccountRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`
		SELECT address, mint, owner, amount FROM token_accounts WHERE address = ?
	`), addr.String())
	if err != nil {
		return TokenAccount{}, noRows(err, fmt.Sprintf("get token account %s", addr))
	}
	return row.decode()
}

// queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// GetAccount reads an account. Returns ErrNotFound if absent.
func (s *Store) GetAccount(ctx context.Context, addr ir.Address) (Account, error) {
	return getAccount(ctx, s.db, addr)
}

// GetMint reads a mint. Returns ErrNotFound if absent.
func (s *Store) GetMint(ctx context.Context, addr ir.Address) (Mint, error) {
	return getMint(ctx, s.db, addr)
}

// GetTokenAccount reads a token account. Returns ErrNotFound if absent.
func (s *Store) GetTokenAccount(ctx context.Context, addr ir.Address) (TokenAccount, error) {
	return getTokenAccount(ctx, s.db, addr)
}

// TokenAccountsByOwner lists every token account held for owner,
// ordered by address for determinism.
func (s *Store) TokenAccountsByOwner(ctx context.Context, owner ir.Address) ([]TokenAccount, error) {
	var rows []tokenAccountRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT address, mint, owner, amount FROM token_accounts
		WHERE owner = ?
		ORDER BY address ASC
	`), owner.String())
	if err != nil {
		return nil, fmt.Errorf("list token accounts: %w", err)
	}

	accounts := make([]TokenAccount, 0, len(rows))
	for _, r := range rows {
		acct, err := r.decode()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// GetAccount reads an account inside the transaction.
func (t *Tx) GetAccount(ctx context.Context, addr ir.Address) (Account, error) {
	return getAccount(ctx, t.tx, addr)
}

// GetMint reads a mint inside the transaction.
func (t *Tx) GetMint(ctx context.Context, addr ir.Address) (Mint, error) {
	return getMint(ctx, t.tx, addr)
}

// GetTokenAccount reads a token account inside the transaction.
func (t *Tx) GetTokenAccount(ctx context.Context, addr ir.Address) (TokenAccount, error) {
	return getTokenAccount(ctx, t.tx, addr)
}

// CreateAccount writes a new account. Accounts are write-once: if the
// address is occupied nothing is written and ErrAlreadyExists is returned.
func (t *Tx) CreateAccount(ctx context.Context, a Account) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
		INSERT INTO accounts (address, owner, data, created_seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING
	`), a.Address.String(), a.Owner.String(), a.Data, a.CreatedSeq)
	if err != nil {
		return fmt.Errorf("create account %s: %w", a.Address, err)
	}
	ok, err := insertedOne(res)
	if err != nil {
		return fmt.Errorf("create account %s: %w", a.Address, err)
	}
	if !ok {
		return fmt.Errorf("create account %s: %w", a.Address, ErrAlreadyExists)
	}
	return nil
}

// CreateMint writes a new mint. Returns ErrAlreadyExists if present.
func (t *Tx) CreateMint(ctx context.Context, m Mint) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
		INSERT INTO mints (address, authority, decimals, supply)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING
	`), m.Address.String(), m.Authority.String(), int64(m.Decimals), m.Supply)
	if err != nil {
		return fmt.Errorf("create mint %s: %w", m.Address, err)
	}
	ok, err := insertedOne(res)
	if err != nil {
		return fmt.Errorf("create mint %s: %w", m.Address, err)
	}
	if !ok {
		return fmt.Errorf("create mint %s: %w", m.Address, ErrAlreadyExists)
	}
	return nil
}

// SetMintSupply overwrites a mint's supply.
func (t *Tx) SetMintSupply(ctx context.Context, mint ir.Address, supply int64) error {
	return t.updateOne(ctx, "set mint supply", `UPDATE mints SET supply = ? WHERE address = ?`, supply, mint.String())
}

// CreateTokenAccount writes a new token account. Returns ErrAlreadyExists if present.
func (t *Tx) CreateTokenAccount(ctx context.Context, a TokenAccount) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
		INSERT INTO token_accounts (address, mint, owner, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING
	`), a.Address.String(), a.Mint.String(), a.Owner.String(), a.Amount)
	if err != nil {
		return fmt.Errorf("create token account %s: %w", a.Address, err)
	}
	ok, err := insertedOne(res)
	if err != nil {
		return fmt.Errorf("create token account %s: %w", a.Address, err)
	}
	if !ok {
		return fmt.Errorf("create token account %s: %w", a.Address, ErrAlreadyExists)
	}
	return nil
}

// SetTokenAmount overwrites a token account's balance.
func (t *Tx) SetTokenAmount(ctx context.Context, addr ir.Address, amount int64) error {
	return t.updateOne(ctx, "set token amount", `UPDATE token_accounts SET amount = ? WHERE address = ?`, amount, addr.String())
}

func (t *Tx) updateOne(ctx context.Context, what, query string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	ok, err := insertedOne(res)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
