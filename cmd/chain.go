package cmd

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	beaconjson "github.com/ggxchain/transaction-receipt-relayer/beacon/json"
	"github.com/ggxchain/transaction-receipt-relayer/config"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/runtime"
)

func initChainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Bootstrap the light client of a chain from a trusted checkpoint",
		Args:    cobra.ExactArgs(0),
		Example: "receipt-relayer init --chain 5 --checkpoint checkpoint.json --signer //Alice",
		RunE:    initChain,
	}

	chainFlag(cmd)
	signerFlags(cmd)
	cmd.Flags().String("checkpoint", "", "JSON checkpoint file, - for stdin")
	_ = cmd.MarkFlagRequired("checkpoint")
	return cmd
}

// applyChainConfig overrides the settings of a checkpoint with the
// configured ones. The networks must agree.
func applyChainConfig(input *lightclient.InitInput, chain *config.ChainConfig) error {
	if input.Network != "" && input.Network != chain.Network {
		return fmt.Errorf("checkpoint is for network %s, chain %d is configured for %s", input.Network, chain.ChainID, chain.Network)
	}
	input.Network = chain.Network
	input.ValidateUpdates = chain.ValidateUpdates
	input.VerifyBLSSignatures = chain.VerifyBLSSignatures
	input.HashesGCThreshold = chain.HashesGCThreshold
	if chain.TrustedSigner != nil {
		input.TrustedSigner = chain.TrustedSigner
	}
	return nil
}

func initChain(cmd *cobra.Command, _ []string) error {
	chain, err := chainID(cmd)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("checkpoint")
	data, err := readInput(path)
	if err != nil {
		return err
	}

	var checkpoint beaconjson.InitInput
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	input, err := checkpoint.ToLightClient()
	if err != nil {
		return fmt.Errorf("convert checkpoint: %w", err)
	}

	account, err := caller()
	if err != nil {
		return err
	}

	return withRuntime(func(conf *config.Config, rt *runtime.Runtime) error {
		chainConf, err := conf.Chain(uint64(chain))
		if err != nil {
			return err
		}
		if err := applyChainConfig(input, chainConf); err != nil {
			return err
		}
		return rt.Init(chain, account, input)
	})
}

func submitUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-update",
		Short: "Submit a light client update",
		Args:  cobra.ExactArgs(0),
		RunE:  submitUpdate,
	}

	chainFlag(cmd)
	signerFlags(cmd)
	cmd.Flags().String("update", "", "JSON light client update file, - for stdin")
	_ = cmd.MarkFlagRequired("update")
	return cmd
}

func submitUpdate(cmd *cobra.Command, _ []string) error {
	chain, err := chainID(cmd)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("update")
	data, err := readInput(path)
	if err != nil {
		return err
	}

	var update beaconjson.LightClientUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return fmt.Errorf("unmarshal update: %w", err)
	}
	lcUpdate, err := update.ToLightClient()
	if err != nil {
		return fmt.Errorf("convert update: %w", err)
	}

	account, err := caller()
	if err != nil {
		return err
	}

	return withRuntime(func(_ *config.Config, rt *runtime.Runtime) error {
		return rt.SubmitUpdate(chain, account, lcUpdate)
	})
}

func submitHeaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-header",
		Short: "Submit execution headers, newest first",
		Long: `Submit execution headers, newest first.

The file holds one header or an array of headers in the execution client's JSON
form. Headers are submitted in file order, so an array starts with the header
announced by the last finalized update and walks back through parent hashes.`,
		Args: cobra.ExactArgs(0),
		RunE: submitHeader,
	}

	chainFlag(cmd)
	signerFlags(cmd)
	cmd.Flags().String("headers", "", "JSON execution header file, - for stdin")
	_ = cmd.MarkFlagRequired("headers")
	return cmd
}

func submitHeader(cmd *cobra.Command, _ []string) error {
	chain, err := chainID(cmd)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("headers")
	data, err := readInput(path)
	if err != nil {
		return err
	}
	headers, err := beaconjson.ParseExecutionHeaders(data)
	if err != nil {
		return err
	}

	account, err := caller()
	if err != nil {
		return err
	}

	return withRuntime(func(_ *config.Config, rt *runtime.Runtime) error {
		for _, header := range headers {
			if err := rt.SubmitExecutionHeader(chain, account, header); err != nil {
				return fmt.Errorf("submit header %d: %w", header.Number, err)
			}
			log.WithFields(log.Fields{
				"chain":       chain,
				"blockNumber": header.Number,
			}).Debug("Submitted execution header")
		}
		log.WithFields(log.Fields{
			"chain": chain,
			"count": len(headers),
		}).Info("Submitted execution headers")
		return nil
	})
}
