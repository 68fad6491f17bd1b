package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/streamingfast/algebra-analytics/state"
	"go.uber.org/zap"
)

var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Write every stored entity as one sorted JSON document",
	RunE:         runDump,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

func init() {
	dumpCmd.Flags().String("snapshot-out", "-", "Output file, - for stdout")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deployment, err := loadDeployment(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, deployment)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	out := mustGetString(cmd, "snapshot-out")
	if out == "-" {
		_, err := state.WriteSnapshot(ctx, os.Stdout, store, entity.Tables)
		return err
	}

	count, err := state.WriteSnapshotFile(ctx, out, store, entity.Tables)
	if err != nil {
		return err
	}
	zlog.Info("snapshot written", zap.String("path", out), zap.Int("entities", count))
	return nil
}
