package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Ethernal-Tech/cardano-fanout/config"
	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	"github.com/Ethernal-Tech/cardano-fanout/indexer/db"
	indexergouroboros "github.com/Ethernal-Tech/cardano-fanout/indexer/gouroboros"
	"github.com/Ethernal-Tech/cardano-fanout/indexes"
	"github.com/Ethernal-Tech/cardano-fanout/logger"
	"github.com/Ethernal-Tech/cardano-fanout/metrics"
	"github.com/Ethernal-Tech/cardano-fanout/process"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	configPath        string
	fromOrigin        bool
	startSlot         uint64
	startHash         string
	resumeFromStore   bool
	poolScriptAddress string
	walletAddress     string
)

var rootCmd = &cobra.Command{
	Use:   "fanout",
	Short: "Cardano chain event fan-out engine",
	Long: `Streams blocks from one Cardano node over node-to-node chain-sync and
fans them out to registered indexes, each with its own persisted cursor.`,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Start syncing and dispatching chain events",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	syncCmd.Flags().BoolVar(&fromOrigin, "from-origin", false, "start syncing from the origin of the chain")
	syncCmd.Flags().Uint64Var(&startSlot, "slot", 0, "slot of the starting point")
	syncCmd.Flags().StringVar(&startHash, "hash", "", "block hash of the starting point")
	syncCmd.MarkFlagsMutuallyExclusive("from-origin", "slot")
	syncCmd.MarkFlagsMutuallyExclusive("from-origin", "hash")
	syncCmd.Flags().BoolVar(&resumeFromStore, "resume", true, "prefer persisted cursors over the starting point")
	syncCmd.Flags().StringVar(&poolScriptAddress, "pool-address", "", "script address of the liquidity pools to track")
	syncCmd.Flags().StringVar(&walletAddress, "wallet-address", "", "address whose utxo set should be tracked")

	rootCmd.AddCommand(syncCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	appConfig, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if poolScriptAddress == "" && walletAddress == "" {
		return fmt.Errorf("at least one of --pool-address and --wallet-address is required")
	}

	loggers := logger.NewLoggerContainer(logger.LoggerConfig{
		LogLevel:         hclog.LevelFromString(appConfig.Logging.Level),
		JSONLogFormat:    appConfig.Logging.JSONFormat,
		AppendFile:       true,
		LogFilePath:      appConfig.Logging.FilePath,
		RotateMaxSizeMB:  appConfig.Logging.RotateMaxSizeMB,
		RotateMaxBackups: appConfig.Logging.RotateMaxBackups,
	})

	mainLogger, err := loggers.GetLogger("main")
	if err != nil {
		return err
	}

	cursorStore, err := db.NewCursorStore(appConfig.CursorDB.Type, appConfig.CursorDB.Path)
	if err != nil {
		return fmt.Errorf("failed to open cursor store: %w", err)
	}

	defer func() {
		if err := cursorStore.Close(); err != nil {
			mainLogger.Warn("Failed to close cursor store", "err", err)
		}
	}()

	indexerLogger, err := loggers.GetLogger("indexer")
	if err != nil {
		return err
	}

	chainIndexer := indexer.NewChainIndexer(nil, cursorStore, indexerLogger)

	if (startSlot != 0) != (startHash != "") {
		return fmt.Errorf("--slot and --hash must be specified together")
	}

	startPoint := indexer.BlockPoint{BlockSlot: startSlot}
	if startHash != "" {
		startPoint.BlockHash = indexer.NewHashFromHexString(strings.TrimPrefix(startHash, "0x"))
	}

	if err := registerIndexes(chainIndexer, startPoint, loggers); err != nil {
		return err
	}

	syncerLogger, err := loggers.GetLogger("syncer")
	if err != nil {
		return err
	}

	syncer := indexergouroboros.NewBlockSyncer(&indexergouroboros.BlockSyncerConfig{
		NetworkMagic:   appConfig.Node.NetworkMagic,
		NodeAddress:    appConfig.Node.Address,
		RestartOnError: appConfig.Sync.RestartOnError,
		RestartDelay:   appConfig.Sync.RestartDelay.Duration,
		SyncStartTries: appConfig.Sync.StartTries,
		KeepAlive:      appConfig.Node.KeepAlive,
	}, chainIndexer, syncerLogger)

	runtime := process.New(mainLogger)
	runtime.Register(indexer.NewSyncerService("chain-sync", syncer, syncerLogger))

	if appConfig.Metrics.Enabled {
		runtime.Register(metrics.NewServer(appConfig.Metrics.ListenAddress, mainLogger))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mainLogger.Info("Starting fan-out engine", "node", appConfig.Node.Address, "startPoint", startPoint)

	if err := runtime.Run(ctx); err != nil {
		return fmt.Errorf("fan-out engine failed: %w", err)
	}

	mainLogger.Info("Fan-out engine stopped")

	return nil
}

func registerIndexes(
	chainIndexer *indexer.ChainIndexer, startPoint indexer.BlockPoint, loggers logger.ILoggerContainer,
) error {
	if poolScriptAddress != "" {
		poolLogger, err := loggers.GetLogger("pools")
		if err != nil {
			return err
		}

		if err := chainIndexer.AddIndex(
			indexes.NewPoolIndex(poolScriptAddress, poolLogger), startPoint, resumeFromStore,
		); err != nil {
			return err
		}
	}

	if walletAddress != "" {
		walletLogger, err := loggers.GetLogger("wallet")
		if err != nil {
			return err
		}

		if err := chainIndexer.AddIndex(
			indexes.NewWalletIndex(walletAddress, walletLogger), startPoint, resumeFromStore,
		); err != nil {
			return err
		}
	}

	return nil
}
