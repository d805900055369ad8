package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/genesis"
)

type initVaultResult struct {
	genesis.Result
	MintGenerated bool `json:"mint_generated"`
}

func (r initVaultResult) WriteText(w io.Writer) error {
	mintNote := ""
	if r.MintGenerated {
		mintNote = " (new; set reward.mint in your config)"
	}
	_, err := fmt.Fprintf(w,
		"Mint:            %s%s\nVault authority: %s (bump %d)\nVault account:   %s\nVault balance:   %d\n",
		r.Mint, mintNote, r.VaultAuthority, r.AuthorityBump, r.VaultAccount, r.VaultBalance)
	return err
}

// NewInitVaultCommand creates the init-vault command.
func NewInitVaultCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-vault",
		Short: "Create the reward mint and fund the vault",
		Long: `Create the reward mint with the --keypair signer as mint authority, open
the vault token account owned by the vault authority, and mint the
configured initial supply into it.

When reward.mint is not configured a fresh mint address is generated;
add it to the config before rewarding. Re-running with an existing mint
changes nothing.

Examples:
  memorychain init-vault --keypair operator.json
  memorychain init-vault --keypair operator.json --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitVault(rootOpts, cmd)
		},
	}
	return cmd
}

func runInitVault(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	key, err := opts.signer()
	if err != nil {
		return err
	}
	s, err := opts.openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	mint, ok, err := s.cfg.MintAddress()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if !ok {
		_, mintKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to generate mint", err)
		}
		mint = AddressOf(mintKey)
	}

	res, err := genesis.Apply(ctx, s.store, s.program.Scheme(), genesis.Params{
		Operator:      AddressOf(key),
		Mint:          mint,
		Decimals:      s.cfg.Reward.Decimals,
		InitialSupply: s.cfg.Reward.InitialSupply,
	}, s.logger)
	if err != nil {
		return WrapExitError(ExitFailure, "genesis failed", err)
	}

	return opts.output(cmd).Success(initVaultResult{Result: res, MintGenerated: !ok})
}
