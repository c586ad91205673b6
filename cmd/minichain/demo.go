package main

import (
	"encoding/json"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/blockberries/minichain/internal/config"
	"github.com/blockberries/minichain/runtime"
)

func init() {
	demoCmd.Flags().String("genesis", "", "genesis JSON file (overrides MINICHAIN_GENESIS_FILE)")
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Execute three sample blocks and print the resulting state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.ParseEnv()
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("genesis"); v != "" {
			cfg.GenesisFile = v
		}
		genesis, err := demoGenesis(cfg)
		if err != nil {
			return err
		}

		logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
		snap, err := runDemo(genesis, logger)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), snap)
	},
}

const demoClaim = "Hello, world!"

// demoGenesis reads the configured genesis file. Without one alice
// starts with 100.
func demoGenesis(cfg config.Config) (runtime.Genesis, error) {
	doc, err := cfg.GenesisDoc()
	if err != nil {
		return runtime.Genesis{}, err
	}
	if len(doc.AppState) == 0 {
		return runtime.Genesis{Balances: map[runtime.AccountID]runtime.Balance{"alice": 100}}, nil
	}
	return runtime.ParseGenesis(doc.AppState)
}

// demoBlocks are three blocks over a genesis that gives alice 100.
// Block 2 holds a duplicate claim and block 3 revokes it and lets
// bob claim the content.
func demoBlocks() []runtime.Block {
	return []runtime.Block{
		{
			Header: runtime.Header{BlockNumber: 1},
			Extrinsics: []runtime.Extrinsic{
				{Caller: "alice", Call: runtime.Transfer("bob", 20)},
				{Caller: "alice", Call: runtime.Transfer("charlie", 20)},
			},
		},
		{
			Header: runtime.Header{BlockNumber: 2},
			Extrinsics: []runtime.Extrinsic{
				{Caller: "alice", Call: runtime.CreateClaim(demoClaim)},
				{Caller: "bob", Call: runtime.CreateClaim(demoClaim)},
			},
		},
		{
			Header: runtime.Header{BlockNumber: 3},
			Extrinsics: []runtime.Extrinsic{
				{Caller: "alice", Call: runtime.RevokeClaim(demoClaim)},
				{Caller: "bob", Call: runtime.CreateClaim(demoClaim)},
			},
		},
	}
}

func runDemo(genesis runtime.Genesis, logger *log.Logger) (runtime.Snapshot, error) {
	rt := runtime.New(runtime.WithReporter(runtime.LogReporter{Logger: logger}))

	if err := genesis.Apply(rt); err != nil {
		return runtime.Snapshot{}, err
	}

	for _, block := range demoBlocks() {
		if err := rt.ExecuteBlock(block); err != nil {
			return runtime.Snapshot{}, errors.Wrap(err, "invalid block")
		}
	}
	return rt.Snapshot(), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "write state")
}
