package derive

import "github.com/roach88/memorychain/internal/ir"

// Namespace tags used by the program.
const (
	MemoryNamespace    = "memory"
	AuthorityNamespace = "authority"
)

// Well-known program ids of the balance ledger collaborator.
var (
	TokenProgramID           = ir.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = ir.MustParseAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// Scheme binds the derivation rules to one deployed program id.
// The zero value is not usable; construct with NewScheme.
type Scheme struct {
	programID          ir.Address
	memoryNamespace    []byte
	authorityNamespace []byte
}

// NewScheme returns the derivation scheme for programID with the standard
// namespace tags.
func NewScheme(programID ir.Address) Scheme {
	return Scheme{
		programID:          programID,
		memoryNamespace:    []byte(MemoryNamespace),
		authorityNamespace: []byte(AuthorityNamespace),
	}
}

// ProgramID returns the program id the scheme derives under.
func (s Scheme) ProgramID() ir.Address {
	return s.programID
}

// MemorySeeds returns the seeds for the record holding content hash h.
func (s Scheme) MemorySeeds(h ir.Hash) [][]byte {
	return [][]byte{s.memoryNamespace, h[:]}
}

// AuthoritySeeds returns the seeds for the vault authority. There is no
// variable input, so there is exactly one vault authority per program.
func (s Scheme) AuthoritySeeds() [][]byte {
	return [][]byte{s.authorityNamespace}
}

// Memory derives the record address for content hash h.
func (s Scheme) Memory(h ir.Hash) (Derivation, error) {
	return FindProgramAddress(s.programID, s.MemorySeeds(h)...)
}

// VaultAuthority derives the vault authority identity.
func (s Scheme) VaultAuthority() (Derivation, error) {
	return FindProgramAddress(s.programID, s.AuthoritySeeds()...)
}

// AssociatedTokenAddress derives the canonical token account of owner for
// mint. The owner may itself be a derived (off-curve) address.
func AssociatedTokenAddress(owner, mint ir.Address) (ir.Address, error) {
	d, err := FindProgramAddress(AssociatedTokenProgramID, owner[:], TokenProgramID[:], mint[:])
	if err != nil {
		return ir.Address{}, err
	}
	return d.Address, nil
}
