package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/streamingfast/algebra-analytics/state"
)

var getCmd = &cobra.Command{
	Use:          "get <Entity> <id>",
	Short:        "Print one stored entity as JSON",
	RunE:         runGet,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
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

	return printEntity(ctx, os.Stdout, store, args[0], args[1])
}

func printEntity(ctx context.Context, w io.Writer, backend state.Backend, table, id string) error {
	if !knownTable(table) {
		return fmt.Errorf("unknown entity %q", table)
	}

	data, err := backend.Get(ctx, entity.KeyFor(table, id))
	if errors.Is(err, state.ErrNotFound) {
		return fmt.Errorf("%s %q not found", table, id)
	}
	if err != nil {
		return err
	}

	out := &bytes.Buffer{}
	if err := json.Indent(out, data, "", "  "); err != nil {
		return fmt.Errorf("formatting %s %q: %w", table, id, err)
	}
	out.WriteByte('\n')

	_, err = w.Write(out.Bytes())
	return err
}

func knownTable(table string) bool {
	for _, known := range entity.Tables {
		if known == table {
			return true
		}
	}
	return false
}
