package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "algebra-analytics",
	Short: "Algebra concentrated liquidity analytics engine",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupProfiler(mustGetString(cmd, "pprof-listen-addr"))
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("manifest", "m", "", "Deployment manifest file (required)")
	flags.String("pprof-listen-addr", "", "Serve pprof on this address when set")
	addStoreFlags(flags)
}

func addStoreFlags(flags *pflag.FlagSet) {
	flags.String("store", "", "Override the manifest store kind, one of memory, badger, redis")
	flags.String("badger-path", "", "Override the manifest badger folder")
	flags.String("redis-addr", "", "Override the manifest redis address")
}

func mustGetString(cmd *cobra.Command, flagName string) string {
	val, err := cmd.Flags().GetString(flagName)
	if err != nil {
		panic(fmt.Sprintf("flags: couldn't find flag %q", flagName))
	}
	return val
}

func mustGetUint64(cmd *cobra.Command, flagName string) uint64 {
	val, err := cmd.Flags().GetUint64(flagName)
	if err != nil {
		panic(fmt.Sprintf("flags: couldn't find flag %q", flagName))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, flagName string) bool {
	val, err := cmd.Flags().GetBool(flagName)
	if err != nil {
		panic(fmt.Sprintf("flags: couldn't find flag %q", flagName))
	}
	return val
}
