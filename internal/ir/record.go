package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// RecordSize is the fixed on-ledger size of a MemoryRecord:
// 8-byte type tag + 32-byte owner + 32-byte content hash + 8-byte timestamp.
const RecordSize = 8 + AddressSize + HashSize + 8

var (
	// ErrRecordSize is returned when account data is not exactly RecordSize bytes.
	ErrRecordSize = errors.New("record has wrong size")

	// ErrRecordTag is returned when account data carries a foreign type tag.
	ErrRecordTag = errors.New("record type tag mismatch")
)

// RecordTag is the 8-byte type tag that prefixes every encoded record.
// It is the first 8 bytes of SHA-256("account:MemoryBlock").
var RecordTag = accountTag("MemoryBlock")

func accountTag(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var tag [8]byte
	copy(tag[:], sum[:8])
	return tag
}

// MemoryRecord is the only entity the program persists.
// It is written once at the address derived from ContentHash and never mutated.
type MemoryRecord struct {
	Owner       Address `json:"owner"`
	ContentHash Hash    `json:"content_hash"`
	CreatedAt   int64   `json:"created_at"` // unix seconds from the host clock
}

// MarshalBinary encodes the record in its 80-byte layout.
// The timestamp is little-endian.
func (r MemoryRecord) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	copy(buf[0:8], RecordTag[:])
	copy(buf[8:40], r.Owner[:])
	copy(buf[40:72], r.ContentHash[:])
	binary.LittleEndian.PutUint64(buf[72:80], uint64(r.CreatedAt))
	return buf, nil
}

// UnmarshalBinary decodes an 80-byte record, checking size and type tag.
func (r *MemoryRecord) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrRecordSize, len(data), RecordSize)
	}
	if [8]byte(data[0:8]) != RecordTag {
		return fmt.Errorf("%w: %x", ErrRecordTag, data[0:8])
	}
	copy(r.Owner[:], data[8:40])
	copy(r.ContentHash[:], data[40:72])
	r.CreatedAt = int64(binary.LittleEndian.Uint64(data[72:80]))
	return nil
}

// DecodeRecord is a convenience wrapper around UnmarshalBinary.
func DecodeRecord(data []byte) (MemoryRecord, error) {
	var r MemoryRecord
	err := r.UnmarshalBinary(data)
	return r, err
}

// Object renders the record as an IRObject for receipts and events.
func (r MemoryRecord) Object() IRObject {
	return IRObject{
		"owner":        IRString(r.Owner.String()),
		"content_hash": IRString(r.ContentHash.String()),
		"created_at":   IRInt(r.CreatedAt),
	}
}
