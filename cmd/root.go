// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package cmd

import (
	"fmt"
	"io"
	stdlog "log"
	"math/big"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ggxchain/transaction-receipt-relayer/config"
	"github.com/ggxchain/transaction-receipt-relayer/crypto/sr25519"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/runtime"
)

var (
	configFile string
	signerURI  string
	signerFile string
)

var rootCmd = &cobra.Command{
	Use:          "receipt-relayer",
	Short:        "Ethereum beacon light client and receipt proof registry",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "relayer.yaml", "Path to configuration file")

	rootCmd.AddCommand(initChainCmd())
	rootCmd.AddCommand(submitUpdateCmd())
	rootCmd.AddCommand(submitHeaderCmd())
	rootCmd.AddCommand(submitProofCmd())
	rootCmd.AddCommand(generateProofCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(queryCmd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signerFlags registers the key of the account a command acts as.
func signerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&signerURI, "signer", "", "Key URI of the calling account, e.g. //Alice")
	cmd.Flags().StringVar(&signerFile, "signer-file", "", "The file from which to read the key URI")
}

func chainFlag(cmd *cobra.Command) {
	cmd.Flags().Uint64("chain", 0, "EVM chain id of the light client")
	_ = cmd.MarkFlagRequired("chain")
}

func chainID(cmd *cobra.Command) (lightclient.ChainID, error) {
	id, err := cmd.Flags().GetUint64("chain")
	return lightclient.ChainID(id), err
}

func caller() (lightclient.AccountID, error) {
	keypair, err := sr25519.ResolveKeypair(signerURI, signerFile)
	if err != nil {
		return lightclient.AccountID{}, err
	}
	log.WithField("address", keypair.Address()).Debug("Resolved signer")
	return lightclient.AccountID(keypair.AccountID()), nil
}

func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	stdlog.SetOutput(log.WithFields(log.Fields{"logger": "stdlib"}).WriterLevel(log.InfoLevel))
	log.SetLevel(conf.Level())
	return conf, nil
}

// withRuntime opens the database of the configured runtime for the duration
// of fn.
func withRuntime(fn func(conf *config.Config, rt *runtime.Runtime) error) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := runtime.OpenDatabase(conf.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	rt := runtime.New(db, runtime.Options{
		Admins:              runtime.NewAdminSet(conf.Admins...),
		Treasury:            conf.Treasury,
		StoragePricePerByte: new(big.Int).SetUint64(conf.StoragePricePerByte),
		MaxProofSize:        conf.Registry.MaxProofSize,
	})
	defer func() {
		if err := rt.Close(); err != nil {
			log.WithError(err).Error("Failed to close database")
		}
	}()

	if err := rt.SeedSettings(conf.Registry.WatchedAddress, conf.Registry.Fees()); err != nil {
		return fmt.Errorf("seed registry settings: %w", err)
	}
	return fn(conf, rt)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
