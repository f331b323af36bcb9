package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/f-sync/unfollow/internal/hiddenstore"
	"github.com/f-sync/unfollow/internal/metrics"
	"github.com/f-sync/unfollow/internal/server"
)

const (
	commandUse                  = "server"
	commandShortDescription     = "Serve the local Instagram unfollower tracker over HTTP"
	envPrefix                   = "UNFOLLOW_SERVER"
	flagHostName                = "host"
	flagHostDescription         = "Host interface for the HTTP server"
	flagPortName                = "port"
	flagPortDescription         = "Port for the HTTP server"
	flagDataDirName             = "data-dir"
	flagDataDirDescription      = "Directory holding hidden account lists"
	flagMaxUploadName           = "max-upload-mb"
	flagMaxUploadDescription    = "Largest accepted archive upload in megabytes"
	flagCacheSizeName           = "cache-size"
	flagCacheSizeDescription    = "Number of analyses kept in memory"
	flagUploadRateName          = "upload-rate"
	flagUploadRateDescription   = "Sustained uploads per second allowed per client; 0 disables the limit"
	flagUploadBurstName         = "upload-burst"
	flagUploadBurstDescription  = "Uploads a client may send in a burst"
	defaultHost                 = "127.0.0.1"
	defaultPort                 = 8080
	defaultDataDirectory        = "./.unfollow"
	defaultMaxUploadMegabytes   = 256
	defaultCacheSize            = 32
	defaultUploadRate           = 1.0
	defaultUploadBurst          = 5
	bytesPerMegabyte            = 1 << 20
	readHeaderTimeout           = 10 * time.Second
	shutdownTimeout             = 10 * time.Second
	errMessageLoggerCreate      = "create logger"
	errMessageHiddenStoreCreate = "create hidden store"
	errMessageListenAndServe    = "listen and serve"
	errMessageShutdown          = "shutdown"
	logMessageStartingServer    = "starting HTTP server"
	logMessageShuttingDown      = "shutting down HTTP server"
	logMessageServerStopped     = "server stopped"
	logMessageListenError       = "server listen failure"
	logFieldAddress             = "address"
	logFieldDataDirectory       = "data_dir"
)

func main() {
	executionContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobra.CheckErr(newServerCommand().ExecuteContext(executionContext))
}

func newServerCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   commandUse,
		Short: commandShortDescription,
		RunE:  runServerCommand,
	}

	command.Flags().String(flagHostName, defaultHost, flagHostDescription)
	command.Flags().Int(flagPortName, defaultPort, flagPortDescription)
	command.Flags().String(flagDataDirName, defaultDataDirectory, flagDataDirDescription)
	command.Flags().Int64(flagMaxUploadName, defaultMaxUploadMegabytes, flagMaxUploadDescription)
	command.Flags().Int(flagCacheSizeName, defaultCacheSize, flagCacheSizeDescription)
	command.Flags().Float64(flagUploadRateName, defaultUploadRate, flagUploadRateDescription)
	command.Flags().Int(flagUploadBurstName, defaultUploadBurst, flagUploadBurstDescription)

	bindFlagToViper(command, flagHostName)
	bindFlagToViper(command, flagPortName)
	bindFlagToViper(command, flagDataDirName)
	bindFlagToViper(command, flagMaxUploadName)
	bindFlagToViper(command, flagCacheSizeName)
	bindFlagToViper(command, flagUploadRateName)
	bindFlagToViper(command, flagUploadBurstName)

	cobra.OnInitialize(configureEnvironment)

	return command
}

func bindFlagToViper(command *cobra.Command, flagName string) {
	cobra.CheckErr(viper.BindPFlag(flagName, command.Flags().Lookup(flagName)))
}

func configureEnvironment() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func runServerCommand(command *cobra.Command, _ []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageLoggerCreate, err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	dataDirectory := viper.GetString(flagDataDirName)
	store, err := hiddenstore.NewDirectory(dataDirectory)
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageHiddenStoreCreate, err)
	}

	registry := prometheus.NewRegistry()
	router, err := server.NewRouter(server.RouterConfig{
		Logger:          logger,
		HiddenStore:     store,
		Metrics:         metrics.NewCollector(registry),
		MetricsGatherer: registry,
		CacheSize:       viper.GetInt(flagCacheSizeName),
		MaxUploadBytes:  viper.GetInt64(flagMaxUploadName) * bytesPerMegabyte,
		UploadRate:      viper.GetFloat64(flagUploadRateName),
		UploadBurst:     viper.GetInt(flagUploadBurstName),
	})
	if err != nil {
		return err
	}

	host := viper.GetString(flagHostName)
	port := viper.GetInt(flagPortName)
	address := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{Addr: address, Handler: router, ReadHeaderTimeout: readHeaderTimeout}

	group, groupContext := errgroup.WithContext(command.Context())
	group.Go(func() error {
		logger.Info(logMessageStartingServer, zap.String(logFieldAddress, address), zap.String(logFieldDataDirectory, dataDirectory))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(logMessageListenError, zap.Error(err))
			return fmt.Errorf("%s: %w", errMessageListenAndServe, err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupContext.Done()
		logger.Info(logMessageShuttingDown)
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownContext); err != nil {
			return fmt.Errorf("%s: %w", errMessageShutdown, err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info(logMessageServerStopped)
	return nil
}
