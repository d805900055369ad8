package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/memorychain/internal/ir"
)

type receiptRow struct {
	Seq         int64  `db:"seq"`
	TxID        string `db:"tx_id"`
	RequestID   string `db:"request_id"`
	Instruction string `db:"instruction"`
	Signers     string `db:"signers"`
	Timestamp   int64  `db:"timestamp"`
	Status      string `db:"status"`
	ErrorCode   string `db:"error_code"`
	Error       string `db:"error"`
	Logs        string `db:"logs"`
	Events      string `db:"events"`
	Result      string `db:"result"`
}

const receiptColumns = `seq, tx_id, request_id, instruction, signers, timestamp,
	status, error_code, error, logs, events, result`

func encodeReceipt(r ir.Receipt) (receiptRow, error) {
	row := receiptRow{
		Seq:       r.Seq,
		TxID:      r.TxID,
		RequestID: r.RequestID,
		Timestamp: r.Timestamp,
		Status:    string(r.Status),
		ErrorCode: r.ErrorCode,
		Error:     r.Error,
	}

	fields := []struct {
		dst *string
		v   any
	}{
		{&row.Instruction, r.Instruction},
		{&row.Signers, nonNil(r.Signers)},
		{&row.Logs, nonNil(r.Logs)},
		{&row.Events, nonNil(r.Events)},
		{&row.Result, r.Result},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return receiptRow{}, fmt.Errorf("encode receipt %s: %w", r.TxID, err)
		}
		*f.dst = string(b)
	}
	return row, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (row receiptRow) decode() (ir.Receipt, error) {
	r := ir.Receipt{
		TxID:      row.TxID,
		Seq:       row.Seq,
		Timestamp: row.Timestamp,
		RequestID: row.RequestID,
		Status:    ir.Status(row.Status),
		ErrorCode: row.ErrorCode,
		Error:     row.Error,
	}

	fields := []struct {
		src string
		dst any
	}{
		{row.Instruction, &r.Instruction},
		{row.Signers, &r.Signers},
		{row.Logs, &r.Logs},
		{row.Events, &r.Events},
		{row.Result, &r.Result},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return ir.Receipt{}, fmt.Errorf("decode receipt seq=%d: %w", row.Seq, err)
		}
	}
	return r, nil
}

// WriteReceipt appends a receipt to the log.
// Returns ErrDuplicateTransaction if a receipt for the same tx id exists.
func (t *Tx) WriteReceipt(ctx context.Context, r ir.Receipt) error {
	row, err := encodeReceipt(r)
	if err != nil {
		return err
	}

	// ON CONFLICT DO NOTHING keeps a second write of the same tx id silent
	// at the SQL level; the duplicate is then reported explicitly.
	res, err := sqlx.NamedExecContext(ctx, t.tx, `
		INSERT INTO receipts (`+receiptColumns+`)
		VALUES (:seq, :tx_id, :request_id, :instruction, :signers, :timestamp,
			:status, :error_code, :error, :logs, :events, :result)
		ON CONFLICT (tx_id) DO NOTHING
	`, row)
	if err != nil {
		return fmt.Errorf("write receipt %s: %w", r.TxID, err)
	}
	ok, err := insertedOne(res)
	if err != nil {
		return fmt.Errorf("write receipt %s: %w", r.TxID, err)
	}
	if !ok {
		return fmt.Errorf("write receipt %s: %w", r.TxID, ErrDuplicateTransaction)
	}
	return nil
}

// WriteReceipt appends a receipt in its own transaction.
// Used for failed transactions, whose state writes were rolled back.
func (s *Store) WriteReceipt(ctx context.Context, r ir.Receipt) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.WriteReceipt(ctx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// ReadReceipt reads the receipt of a transaction by id.
func (s *Store) ReadReceipt(ctx context.Context, txID string) (ir.Receipt, error) {
	var row receiptRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+receiptColumns+` FROM receipts WHERE tx_id = ?
	`), txID)
	if err != nil {
		return ir.Receipt{}, noRows(err, fmt.Sprintf("read receipt %s", txID))
	}
	return row.decode()
}

// ReadReceipts returns receipts with seq > afterSeq in seq order.
// A limit <= 0 means no limit.
func (s *Store) ReadReceipts(ctx context.Context, afterSeq int64, limit int) ([]ir.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE seq > ? ORDER BY seq ASC`
	args := []any{afterSeq}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []receiptRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("read receipts: %w", err)
	}

	receipts := make([]ir.Receipt, 0, len(rows))
	for _, row := range rows {
		r, err := row.decode()
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}

// LastSeq returns the highest receipt seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) FROM receipts`)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// HasTransaction reports whether a receipt exists for txID.
func (s *Store) HasTransaction(ctx context.Context, txID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM receipts WHERE tx_id = ?`), txID)
	if err != nil {
		return false, fmt.Errorf("has transaction: %w", err)
	}
	return n > 0, nil
}
