package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	commandUse                  = "analyze <archive.zip> [archive.zip...]"
	commandShortDescription     = "Analyze Instagram export archives for unreciprocated follows"
	envPrefix                   = "UNFOLLOW"
	flagFormatName              = "format"
	flagFormatDescription       = "Output format: json, text, csv or html"
	flagListName                = "list"
	flagListDescription         = "List exported by the csv format: not_following_back, you_dont_follow_back or mutuals"
	flagOutName                 = "out"
	flagOutDescription          = "Output file path for a single archive"
	flagOutDirName              = "out-dir"
	flagOutDirDescription       = "Directory receiving one output file per archive"
	flagHiddenDirName           = "hidden-dir"
	flagHiddenDirDescription    = "Hidden account store directory applied to text, csv and html output"
	flagShowDeletedName         = "show-deleted"
	flagShowDeletedDescription  = "Include accounts that look deleted"
	flagQueryName               = "query"
	flagQueryDescription        = "Only list usernames containing this text"
	flagConcurrencyName         = "concurrency"
	flagConcurrencyDescription  = "Maximum archives analyzed at once"
	flagVerboseName             = "verbose"
	flagVerboseDescription      = "Enable development logging"
	defaultFormat               = formatJSON
	errMessageLoggerCreate      = "create logger"
	logMessageAnalysisStarting  = "analyzing archives"
	logMessageAnalysisCompleted = "analysis completed"
	logFieldArchiveCount        = "archives"
)

func main() {
	executionContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobra.CheckErr(newAnalyzeCommand().ExecuteContext(executionContext))
}

func newAnalyzeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          commandUse,
		Short:        commandShortDescription,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runAnalyzeCommand,
	}

	command.Flags().String(flagFormatName, defaultFormat, flagFormatDescription)
	command.Flags().String(flagListName, "", flagListDescription)
	command.Flags().String(flagOutName, "", flagOutDescription)
	command.Flags().String(flagOutDirName, "", flagOutDirDescription)
	command.Flags().String(flagHiddenDirName, "", flagHiddenDirDescription)
	command.Flags().Bool(flagShowDeletedName, false, flagShowDeletedDescription)
	command.Flags().String(flagQueryName, "", flagQueryDescription)
	command.Flags().Int(flagConcurrencyName, defaultConcurrency, flagConcurrencyDescription)
	command.Flags().Bool(flagVerboseName, false, flagVerboseDescription)

	for _, flagName := range []string{
		flagFormatName,
		flagListName,
		flagOutName,
		flagOutDirName,
		flagHiddenDirName,
		flagShowDeletedName,
		flagQueryName,
		flagConcurrencyName,
		flagVerboseName,
	} {
		bindFlagToViper(command, flagName)
	}

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

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runAnalyzeCommand(command *cobra.Command, archivePaths []string) error {
	logger, err := newLogger(viper.GetBool(flagVerboseName))
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageLoggerCreate, err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	configuration := AnalyzeConfiguration{
		ArchivePaths:    archivePaths,
		Format:          viper.GetString(flagFormatName),
		ListName:        viper.GetString(flagListName),
		OutputPath:      viper.GetString(flagOutName),
		OutputDirectory: viper.GetString(flagOutDirName),
		HiddenDirectory: viper.GetString(flagHiddenDirName),
		ShowDeleted:     viper.GetBool(flagShowDeletedName),
		Query:           viper.GetString(flagQueryName),
		Concurrency:     viper.GetInt(flagConcurrencyName),
	}

	logger.Debug(logMessageAnalysisStarting, zap.Int(logFieldArchiveCount, len(archivePaths)))
	application := NewAnalyzeApplicationWithDependencies(AnalyzeDependencies{
		Stdout: command.OutOrStdout(),
		Logger: logger,
	})
	if err := application.Run(command.Context(), configuration); err != nil {
		return err
	}
	logger.Debug(logMessageAnalysisCompleted, zap.Int(logFieldArchiveCount, len(archivePaths)))
	return nil
}
