package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	beaconjson "github.com/ggxchain/transaction-receipt-relayer/beacon/json"
	"github.com/ggxchain/transaction-receipt-relayer/config"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/runtime"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Privileged operations, signed by a configured admin",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(pauseCmd(true))
	cmd.AddCommand(pauseCmd(false))
	cmd.AddCommand(trustedSignerCmd())
	cmd.AddCommand(watchCmd())
	cmd.AddCommand(proofFeeCmd())
	cmd.AddCommand(fundCmd())
	return cmd
}

// adminRun resolves the signer and runs fn against the runtime.
func adminRun(fn func(cmd *cobra.Command, args []string, account lightclient.AccountID, rt *runtime.Runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		account, err := caller()
		if err != nil {
			return err
		}
		return withRuntime(func(_ *config.Config, rt *runtime.Runtime) error {
			return fn(cmd, args, account, rt)
		})
	}
}

func pauseCmd(pause bool) *cobra.Command {
	use, short := "resume", "Accept light client updates of a chain again"
	if pause {
		use, short = "pause", "Stop accepting light client updates of a chain"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(0),
		RunE: adminRun(func(cmd *cobra.Command, _ []string, account lightclient.AccountID, rt *runtime.Runtime) error {
			chain, err := chainID(cmd)
			if err != nil {
				return err
			}
			if pause {
				return rt.Pause(chain, account)
			}
			return rt.Resume(chain, account)
		}),
	}
	chainFlag(cmd)
	signerFlags(cmd)
	return cmd
}

func trustedSignerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trusted-signer [account id]",
		Short: "Restrict updates of a chain to one account, or lift the restriction when no account is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: adminRun(func(cmd *cobra.Command, args []string, account lightclient.AccountID, rt *runtime.Runtime) error {
			chain, err := chainID(cmd)
			if err != nil {
				return err
			}
			var signer *lightclient.AccountID
			if len(args) == 1 {
				id, err := beaconjson.ToAccountID(args[0])
				if err != nil {
					return fmt.Errorf("trusted signer: %w", err)
				}
				signer = &id
			}
			return rt.SetTrustedSigner(chain, account, signer)
		}),
	}
	chainFlag(cmd)
	signerFlags(cmd)
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <address>",
		Short: "Set the contract whose logs are rewarded",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(_ *cobra.Command, args []string, account lightclient.AccountID, rt *runtime.Runtime) error {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid address %q", args[0])
			}
			return rt.UpdateWatchingAddress(account, common.HexToAddress(args[0]))
		}),
	}
	signerFlags(cmd)
	return cmd
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func proofFeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof-fee <deposit> <reward>",
		Short: "Set what a repeated proof costs and what a new one earns",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(func(_ *cobra.Command, args []string, account lightclient.AccountID, rt *runtime.Runtime) error {
			deposit, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			reward, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return rt.UpdateProofFee(account, deposit, reward)
		}),
	}
	signerFlags(cmd)
	return cmd
}

func fundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund <account id> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(func(cmd *cobra.Command, args []string, account lightclient.AccountID, rt *runtime.Runtime) error {
			target, err := beaconjson.ToAccountID(args[0])
			if err != nil {
				return fmt.Errorf("account id: %w", err)
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if err := rt.Fund(account, target, amount); err != nil {
				return err
			}
			balance, err := rt.Balance(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance %s\n", target, balance)
			return nil
		}),
	}
	signerFlags(cmd)
	return cmd
}
