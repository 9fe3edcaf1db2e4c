package commands

// One-shot snapshot build, printed as JSON

import (
	"encoding/json"
	"fmt"
	"time"

	"gpu-snapshot/internal/infra/config"
	"gpu-snapshot/internal/infra/fs"
	"gpu-snapshot/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	snapshotMint   string
	snapshotPretty bool
	snapshotSave   bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build one snapshot and print it as JSON",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotMint, "mint", "", "mint to snapshot instead of token.mint")
	snapshotCmd.Flags().BoolVar(&snapshotPretty, "pretty", false, "indent the JSON output")
	snapshotCmd.Flags().BoolVar(&snapshotSave, "save", false, "also write the snapshot under the data directory")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	mint := cfg.Token.Mint
	if snapshotMint != "" {
		if !config.IsMint(snapshotMint) {
			return &config.ConfigurationError{
				Key:     "mint",
				Message: fmt.Sprintf("invalid --mint %q: expected a base-58 address of 32 to 44 characters", snapshotMint),
			}
		}
		mint = snapshotMint
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	p, err := builder.Build(cmd.Context(), mint)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	var out []byte
	if snapshotPretty {
		out, err = json.MarshalIndent(p, "", "  ")
	} else {
		out, err = json.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if snapshotSave {
		name := fmt.Sprintf("%s_%s.json", mint, p.UpdatedAt.Format("20060102T150405Z"))
		path, err := fs.NewStore(cfg.App.DataDir).SaveJSON(name, p)
		if err != nil {
			return err
		}
		log.LogInfo("Snapshot saved", zap.String("path", path), zap.Duration("age", time.Since(p.UpdatedAt)))
	}
	return nil
}
