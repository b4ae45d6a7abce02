package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/PanGan21/indexer-go/config"
	"github.com/PanGan21/indexer-go/model/payments"
	"github.com/PanGan21/indexer-go/module"
	"github.com/PanGan21/indexer-go/module/component"
	"github.com/PanGan21/indexer-go/module/irrecoverable"
	"github.com/PanGan21/indexer-go/module/mempool"
	"github.com/PanGan21/indexer-go/module/metrics"
	"github.com/PanGan21/indexer-go/module/snapshot"
	syncmod "github.com/PanGan21/indexer-go/module/sync"
	"github.com/PanGan21/indexer-go/module/tap"
	"github.com/PanGan21/indexer-go/module/util"
	"github.com/PanGan21/indexer-go/service"
	storagebadger "github.com/PanGan21/indexer-go/storage/badger"
	"github.com/PanGan21/indexer-go/subgraph"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "indexer-service",
		Short:         "query-serving indexer node with receipt payment verification",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "indexer-service: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	operatorKey, err := cfg.OperatorECDSAKey()
	if err != nil {
		return err
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.Database.Dir).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open receipt database: %w", err)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewPaymentCollector(registry)

	// reference tables
	allocations := snapshot.NewValue[payments.AllocationSnapshot]()
	escrow := snapshot.NewValue[payments.EscrowAccounts]()
	signers := snapshot.NewValue[payments.SignerSnapshot]()

	networkSubgraph := subgraph.NewClient(log, "network", cfg.Subgraphs.NetworkEndpoint)
	escrowSubgraph := subgraph.NewClient(log, "escrow", cfg.Subgraphs.EscrowEndpoint)

	allocationSyncer := syncmod.NewAllocationSyncer(
		log, collector, networkSubgraph, cfg.IndexerAddress(), cfg.Sync.AllocationInterval, allocations)
	escrowSyncer := syncmod.NewEscrowSyncer(
		log, collector, escrowSubgraph, cfg.IndexerAddress(), cfg.Sync.EscrowInterval, escrow)
	signerSyncer := syncmod.NewSignerSyncer(
		log, collector, networkSubgraph, operatorKey, cfg.Sync.DisputeManagerInterval, allocations, signers)

	// validation pipeline
	receipts := storagebadger.NewReceipts(db)
	appraisals := mempool.NewAppraisals(cfg.Receipts.AppraisalTTL)
	janitor := mempool.NewAppraisalJanitor(log, appraisals, cfg.Receipts.AppraisalTTL)
	tracker := tap.NewEscrowTracker(escrow)
	pipeline := tap.DefaultPipeline(appraisals, cfg.EIP712Domain(), receipts, tracker, cfg.Receipts.AcceptanceWindow)
	manager := tap.NewManager(log, collector, receipts, tracker, allocations, signers, escrow, pipeline)

	svc := service.New(log, collector, appraisals, manager)
	server := service.NewServer(log, cfg.Server.ListenAddr, svc, unpricedQueries{}, registry)

	rootCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	signalerCtx, errChan := irrecoverable.WithSignaler(rootCtx)

	components := []component.Component{allocationSyncer, escrowSyncer, signerSyncer, janitor, manager}
	for _, c := range components {
		c.Start(signalerCtx)
	}
	readyDone := make([]module.ReadyDoneAware, len(components))
	for i, c := range components {
		readyDone[i] = c
	}
	<-util.AllReady(readyDone...)
	log.Info().Msg("all components ready")

	var result *multierror.Error

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(rootCtx)
	}()

	select {
	case err := <-errChan:
		result = multierror.Append(result, fmt.Errorf("irrecoverable component failure: %w", err))
		cancel()
		result = multierror.Append(result, <-serverErr)
	case err := <-serverErr:
		result = multierror.Append(result, err)
		cancel()
	}

	// the server has drained; stop the background components
	<-util.AllDone(readyDone...)
	log.Info().Msg("shutdown complete")
	return result.ErrorOrNil()
}

// unpricedQueries is the placeholder query executor: the real execution and
// cost-model engine sits outside this core and is wired in by the embedding
// binary.
type unpricedQueries struct{}

func (unpricedQueries) Appraise(payments.DeploymentID, []byte) (*big.Int, error) {
	return nil, fmt.Errorf("query execution engine not wired")
}

func (unpricedQueries) Execute(context.Context, payments.DeploymentID, []byte) ([]byte, error) {
	return nil, fmt.Errorf("query execution engine not wired")
}
