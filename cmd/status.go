package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cbroglie/mustache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	beaconjson "github.com/ggxchain/transaction-receipt-relayer/beacon/json"
	"github.com/ggxchain/transaction-receipt-relayer/config"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/runtime"
)

const statusTemplate = `Registry
  watched address: {{WatchedAddress}}
  proof deposit:   {{ProofDeposit}}
  proof reward:    {{ProofReward}}
{{#Chains}}

Chain {{ChainID}} ({{Network}})
{{#Status}}
  mode:              {{Mode}}{{#Paused}}, paused{{/Paused}}
  verification:      {{VerificationMode}}{{#TrustedSigner}} by {{TrustedSigner}}{{/TrustedSigner}}
  finalized slot:    {{FinalizedSlot}}
  finalized root:    {{FinalizedRoot}}
  execution hash:    {{ExecutionHash}}
  last block number: {{LastBlockNumber}}
  pending headers:   {{PendingHeaders}}{{#HasTail}} down to block {{TailBlockNumber}}{{/HasTail}}
{{/Status}}
{{^Status}}
  not initialized
{{/Status}}
{{/Chains}}
`

type chainReport struct {
	ChainID uint64
	Network string
	Status  *runtime.ChainStatus
}

type statusReport struct {
	WatchedAddress string
	ProofDeposit   string
	ProofReward    string
	Chains         []chainReport
}

func renderStatus(report *statusReport) (string, error) {
	return mustache.Render(statusTemplate, report)
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the registry settings and the light client of every configured chain",
		Args:  cobra.ExactArgs(0),
		RunE:  status,
	}
	return cmd
}

func status(cmd *cobra.Command, _ []string) error {
	return withRuntime(func(conf *config.Config, rt *runtime.Runtime) error {
		watched, err := rt.WatchedAddress()
		if err != nil {
			return err
		}
		fees, err := rt.ProofFees()
		if err != nil {
			return err
		}

		report := statusReport{
			WatchedAddress: watched.Hex(),
			ProofDeposit:   fees.ProofDeposit.String(),
			ProofReward:    fees.ProofReward.String(),
		}
		for _, chain := range conf.Chains {
			status, err := rt.Status(lightclient.ChainID(chain.ChainID))
			if err != nil && !errors.Is(err, lightclient.ErrChainNotInitialized) {
				return err
			}
			report.Chains = append(report.Chains, chainReport{
				ChainID: chain.ChainID,
				Network: chain.Network,
				Status:  status,
			})
		}

		rendered, err := renderStatus(&report)
		if err != nil {
			return fmt.Errorf("render status: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	})
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read single values from the runtime",
		Args:  cobra.MinimumNArgs(1),
	}

	blockHash := &cobra.Command{
		Use:   "block-hash <number>",
		Short: "Hash of a finalized execution block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := chainID(cmd)
			if err != nil {
				return err
			}
			number, err := strconv.ParseUint(args[0], 0, 64)
			if err != nil {
				return fmt.Errorf("block number: %w", err)
			}
			return withRuntime(func(_ *config.Config, rt *runtime.Runtime) error {
				hash, ok, err := rt.BlockHashSafe(chain, number)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("block %d is not finalized on chain %d", number, chain)
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
				return nil
			})
		},
	}
	chainFlag(blockHash)

	receipt := &cobra.Command{
		Use:   "receipt <receipt hash> [block number]",
		Short: "Whether a proof of the receipt was already accepted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := chainID(cmd)
			if err != nil {
				return err
			}
			hash := common.HexToHash(args[0])
			return withRuntime(func(_ *config.Config, rt *runtime.Runtime) error {
				var processed bool
				if len(args) == 2 {
					number, err := strconv.ParseUint(args[1], 0, 64)
					if err != nil {
						return fmt.Errorf("block number: %w", err)
					}
					processed, err = rt.ProcessedReceipt(chain, number, hash)
					if err != nil {
						return err
					}
				} else {
					processed, err = rt.ProcessedReceiptHash(chain, hash)
					if err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), processed)
				return nil
			})
		},
	}
	chainFlag(receipt)

	balance := &cobra.Command{
		Use:   "balance <account id>",
		Short: "Balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := beaconjson.ToAccountID(args[0])
			if err != nil {
				return fmt.Errorf("account id: %w", err)
			}
			return withRuntime(func(_ *config.Config, rt *runtime.Runtime) error {
				balance, err := rt.Balance(account)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), balance)
				return nil
			})
		},
	}

	cmd.AddCommand(blockHash, receipt, balance)
	return cmd
}
