package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/streamingfast/algebra-analytics/codec"
	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/streamingfast/algebra-analytics/exchange"
	"github.com/streamingfast/algebra-analytics/manifest"
	"github.com/streamingfast/algebra-analytics/pipeline"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/streamingfast/algebra-analytics/subscription"
	"github.com/streamingfast/algebra-analytics/subscription/natspub"
	"github.com/streamingfast/algebra-analytics/tokens"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:          "run <events.jsonl>",
	Short:        "Replay a JSONL event file through the engine",
	RunE:         runRun,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

func init() {
	runCmd.Flags().String("nats-url", "", "Override the manifest NATS url, deltas are published there when set")
	runCmd.Flags().String("rpc-endpoint", "", "Override the manifest RPC endpoint used to fetch token metadata")
	runCmd.Flags().Uint64P("stop-block", "t", 0, "Stop before the first event of this block, 0 runs the whole file")
	runCmd.Flags().String("snapshot-out", "", "Write the final state snapshot to this file")
	runCmd.Flags().Bool("print-deltas", false, "Print every committed delta")
	runCmd.Flags().String("print-topic", subscription.AllTopics, "Entity table whose deltas are printed, all of them by default")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deployment, err := loadDeployment(cmd)
	if err != nil {
		return err
	}
	if url := mustGetString(cmd, "nats-url"); url != "" {
		deployment.NATS.URL = url
	}
	if endpoint := mustGetString(cmd, "rpc-endpoint"); endpoint != "" {
		deployment.RPC.Endpoint = endpoint
	}

	store, err := openStore(ctx, deployment)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Warn("closing state store", zap.Error(err))
		}
	}()

	fetcher, closeFetcher, err := newTokenFetcher(ctx, deployment)
	if err != nil {
		return err
	}
	defer closeFetcher()

	builder := state.New("algebra", store)
	subgraph := exchange.NewSubgraph(deployment.ExchangeConfig(), builder, fetcher, zlog)

	var sinks []pipeline.Sink
	if mustGetBool(cmd, "print-deltas") {
		hub, err := pipeline.NewSubscriptionHub()
		if err != nil {
			return fmt.Errorf("setting up subscription hub: %w", err)
		}
		if err := pipeline.PrintDeltas(ctx, hub, mustGetString(cmd, "print-topic"), builder); err != nil {
			return fmt.Errorf("subscribing delta printer: %w", err)
		}
		sinks = append(sinks, hub)
	}

	if deployment.NATS.URL != "" {
		publisher, err := natspub.New(deployment.NATS.URL, deployment.NATS.SubjectPrefix)
		if err != nil {
			return err
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				zlog.Warn("closing NATS publisher", zap.Error(err))
			}
		}()
		sinks = append(sinks, publisher)
	}

	eventsPath := args[0]
	eventsFile, err := os.Open(eventsPath)
	if err != nil {
		return fmt.Errorf("opening events file: %w", err)
	}
	defer eventsFile.Close()

	pipe := pipeline.New(subgraph,
		pipeline.WithSinks(sinks...),
		pipeline.WithStopBlock(mustGetUint64(cmd, "stop-block")),
	)

	zlog.Info("replaying events",
		zap.String("events", eventsPath),
		zap.String("deployment", deployment.Description),
		zap.String("store", deployment.Store.Kind),
		zap.Int("sinks", len(sinks)),
	)
	if err := pipe.Run(ctx, codec.NewDecoder(eventsFile, codec.WithPositionManager(deployment.PositionManager))); err != nil {
		block, logIndex := pipe.LastPosition()
		return fmt.Errorf("replay stopped after block %d log %d: %w", block, logIndex, err)
	}

	if out := mustGetString(cmd, "snapshot-out"); out != "" {
		count, err := state.WriteSnapshotFile(ctx, out, store, entity.Tables)
		if err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		zlog.Info("snapshot written", zap.String("path", out), zap.Int("entities", count))
	}
	return nil
}

// newTokenFetcher resolves tokens from the manifest static definitions
// first, then from the RPC endpoint when one is configured.
func newTokenFetcher(ctx context.Context, deployment *manifest.Deployment) (tokens.Fetcher, func(), error) {
	chain := tokens.Chain{tokens.NewStatic(deployment.StaticTokenInfos())}
	if deployment.RPC.Endpoint == "" {
		zlog.Info("no rpc endpoint, tokens without static definition abort their pool creation")
		return chain, func() {}, nil
	}

	rpc, err := tokens.DialRPC(ctx, deployment.RPC.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing rpc endpoint: %w", err)
	}
	return append(chain, rpc), rpc.Close, nil
}
