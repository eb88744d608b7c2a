package cmd

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	beaconjson "github.com/ggxchain/transaction-receipt-relayer/beacon/json"
	"github.com/ggxchain/transaction-receipt-relayer/beacon/scale"
	"github.com/ggxchain/transaction-receipt-relayer/beacon/util"
	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
	"github.com/ggxchain/transaction-receipt-relayer/config"
	relayruntime "github.com/ggxchain/transaction-receipt-relayer/runtime"
)

func submitProofCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-proof",
		Short: "Submit a SCALE encoded receipt proof",
		Args:  cobra.ExactArgs(0),
		RunE:  submitProof,
	}

	chainFlag(cmd)
	signerFlags(cmd)
	cmd.Flags().String("proof", "", "Hex encoded proof")
	cmd.Flags().String("proof-file", "", "File holding the hex encoded proof, - for stdin")
	cmd.MarkFlagsOneRequired("proof", "proof-file")
	cmd.MarkFlagsMutuallyExclusive("proof", "proof-file")
	return cmd
}

func submitProof(cmd *cobra.Command, _ []string) error {
	chain, err := chainID(cmd)
	if err != nil {
		return err
	}

	proofHex, _ := cmd.Flags().GetString("proof")
	if path, _ := cmd.Flags().GetString("proof-file"); path != "" {
		data, err := readInput(path)
		if err != nil {
			return err
		}
		proofHex = strings.TrimSpace(string(data))
	}
	raw, err := util.HexStringToByteArray(proofHex)
	if err != nil {
		return fmt.Errorf("decode proof hex: %w", err)
	}

	account, err := caller()
	if err != nil {
		return err
	}

	return withRuntime(func(_ *config.Config, rt *relayruntime.Runtime) error {
		outcome, err := rt.SubmitProof(chain, account, raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s block=%d receipt=%s\n",
			outcome.Kind, outcome.Amount, outcome.BlockNumber, outcome.ReceiptHash.Hex())
		return nil
	})
}

func generateProofCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-proof",
		Short: "Build receipt proofs from a block and its receipts",
		Long: `Build receipt proofs from a block and its receipts.

--block takes the block as returned by eth_getBlockByNumber, --receipts the
result of eth_getBlockReceipts for the same block. Each proof is printed hex
encoded on its own line, in transaction order.`,
		Args: cobra.ExactArgs(0),
		RunE: generateProof,
	}

	cmd.Flags().String("block", "", "JSON block file")
	_ = cmd.MarkFlagRequired("block")
	cmd.Flags().String("receipts", "", "JSON receipts file")
	_ = cmd.MarkFlagRequired("receipts")
	cmd.Flags().Uint64("index", 0, "Transaction index of the receipt to prove")
	cmd.Flags().Bool("all", false, "Prove every receipt of the block")
	return cmd
}

func generateProof(cmd *cobra.Command, _ []string) error {
	blockPath, _ := cmd.Flags().GetString("block")
	receiptsPath, _ := cmd.Flags().GetString("receipts")
	index, _ := cmd.Flags().GetUint64("index")
	all, _ := cmd.Flags().GetBool("all")

	data, err := readInput(blockPath)
	if err != nil {
		return err
	}
	headers, err := beaconjson.ParseExecutionHeaders(data)
	if err != nil {
		return err
	}
	if len(headers) != 1 {
		return fmt.Errorf("block file holds %d headers, want 1", len(headers))
	}

	data, err = readInput(receiptsPath)
	if err != nil {
		return err
	}
	receipts, err := beaconjson.ParseReceipts(data)
	if err != nil {
		return err
	}

	indices := []uint64{index}
	if all {
		indices = make([]uint64, len(receipts))
		for i := range indices {
			indices[i] = uint64(i)
		}
	}

	proofs, err := generateProofs(headers[0], receipts, indices)
	if err != nil {
		return err
	}
	for _, proof := range proofs {
		fmt.Fprintln(cmd.OutOrStdout(), util.BytesToHexString(proof))
	}
	return nil
}

// generateProofs encodes the proofs of the receipts at indices, in the order
// given.
func generateProofs(header *ethereum.ExecutionHeader, receipts []*ethereum.TransactionReceipt, indices []uint64) ([][]byte, error) {
	receiptsTrie := ethereum.ReceiptsTrie(receipts)
	proofs := make([][]byte, len(indices))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, index := range indices {
		i, index := i, index
		eg.Go(func() error {
			proof, err := ethereum.MakeEventProof(header, receipts, receiptsTrie, index)
			if err != nil {
				return err
			}
			proofs[i], err = scale.EncodeEventProof(proof)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"blockNumber": header.Number,
		"proofs":      len(proofs),
	}).Info("Generated receipt proofs")
	return proofs, nil
}
