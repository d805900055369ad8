package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/ir"
)

// LoadKeypair reads a keypair file: a JSON array of 64 byte values, the
// 32-byte seed followed by the public key.
func LoadKeypair(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair: %w", err)
	}

	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keypair %s: %w", path, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair %s: %d bytes, want %d", path, len(raw), ed25519.PrivateKeySize)
	}

	buf := make([]byte, len(raw))
	for i, b := range raw {
		if b < 0 || b > 255 {
			return nil, fmt.Errorf("keypair %s: byte %d out of range: %d", path, i, b)
		}
		buf[i] = byte(b)
	}

	key := ed25519.NewKeyFromSeed(buf[:ed25519.SeedSize])
	if !key.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(buf[ed25519.SeedSize:])) {
		return nil, fmt.Errorf("keypair %s: public key does not match seed", path)
	}
	return key, nil
}

// WriteKeypair writes key in the LoadKeypair format with owner-only
// permissions. An existing file is never overwritten.
func WriteKeypair(path string, key ed25519.PrivateKey) error {
	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create keypair: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write keypair: %w", err)
	}
	return f.Close()
}

// AddressOf returns the address of key, its public key.
func AddressOf(key ed25519.PrivateKey) ir.Address {
	return ir.Address(key.Public().(ed25519.PublicKey))
}

// signer loads the --keypair file.
func (o *RootOptions) signer() (ed25519.PrivateKey, error) {
	if o.Keypair == "" {
		return nil, NewExitError(ExitCommandError, "--keypair is required")
	}
	key, err := LoadKeypair(o.Keypair)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load keypair", err)
	}
	return key, nil
}

type keygenResult struct {
	Address ir.Address `json:"address"`
	Path    string     `json:"path"`
}

func (r keygenResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Wrote keypair %s\nAddress: %s\n", r.Path, r.Address)
	return err
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signer keypair",
		Long: `Generate a new Ed25519 keypair and write it as a JSON array of 64 bytes.

Examples:
  memorychain keygen --out miner.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, key, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate key", err)
			}
			if err := WriteKeypair(out, key); err != nil {
				if errors.Is(err, os.ErrExist) {
					return WrapExitError(ExitCommandError, "refusing to overwrite keypair", err)
				}
				return WrapExitError(ExitCommandError, "failed to write keypair", err)
			}
			return rootOpts.output(cmd).Success(keygenResult{Address: AddressOf(key), Path: out})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "keypair file to create (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
