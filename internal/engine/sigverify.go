package engine

import (
	"crypto/ed25519"

	"github.com/roach88/memorychain/internal/ir"
)

// Sign produces a signed transaction. keys must be given in signer order;
// each key's public half must equal the corresponding signer address.
func Sign(tx ir.Transaction, keys ...ed25519.PrivateKey) (ir.SignedTransaction, error) {
	if len(keys) != len(tx.Signers) {
		return ir.SignedTransaction{}, NewSignatureError(tx.ID, "%d keys for %d signers", len(keys), len(tx.Signers))
	}

	msg, err := ir.MessageBytes(tx)
	if err != nil {
		return ir.SignedTransaction{}, err
	}

	sigs := make([][]byte, len(keys))
	for i, key := range keys {
		pub := key.Public().(ed25519.PublicKey)
		if ir.Address(pub) != tx.Signers[i] {
			return ir.SignedTransaction{}, NewSignatureError(tx.ID, "key %d does not belong to signer %s", i, tx.Signers[i])
		}
		sigs[i] = ed25519.Sign(key, msg)
	}
	return ir.SignedTransaction{Transaction: tx, Signatures: sigs}, nil
}

// Verify authenticates every signer of stx and returns the transaction.
// A signer address is its Ed25519 public key.
func Verify(stx ir.SignedTransaction) (ir.Transaction, error) {
	tx := stx.Transaction
	if err := checkID(tx); err != nil {
		return ir.Transaction{}, err
	}
	if len(tx.Signers) == 0 {
		return ir.Transaction{}, NewSignatureError(tx.ID, "no signers")
	}
	if len(stx.Signatures) != len(tx.Signers) {
		return ir.Transaction{}, NewSignatureError(tx.ID, "%d signatures for %d signers", len(stx.Signatures), len(tx.Signers))
	}

	msg, err := ir.MessageBytes(tx)
	if err != nil {
		return ir.Transaction{}, err
	}

	for i, signer := range tx.Signers {
		sig := stx.Signatures[i]
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(signer.Bytes()), msg, sig) {
			return ir.Transaction{}, NewSignatureError(tx.ID, "bad signature for %s", signer)
		}
	}
	return tx, nil
}
