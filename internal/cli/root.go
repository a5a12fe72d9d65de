package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flag name -> config key
var flagKeys = map[string]string{
	"source":        "source",
	"query":         "query",
	"provider":      "provider",
	"chunk-size":    "chunking.size",
	"chunk-overlap": "chunking.overlap",
	"top-k":         "retrieval.top_k",
	"vector-store":  "vector_store.backend",
	"collection":    "vector_store.collection",
	"chromem-path":  "vector_store.chromem.path",
	"run-store":     "run_store.backend",
	"redis-addr":    "run_store.redis_addr",
	"max-attempts":  "retry.max_attempts",
	"pushgateway":   "metrics.pushgateway_url",
	"log-level":     "log.level",
	"log-json":      "log.json",
}

type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string
	jsonOut bool
	logger  *logger_i.Logger
}

func NewRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "pdfrag",
		Short: "Answer questions about a PDF with retrieval augmented generation",
		Long: `pdfrag loads a document, splits it into overlapping chunks, embeds them into a
vector store and answers a question from the most similar chunks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.StringVar(&a.envFile, "env-file", "", "env file to load (default .env when present)")
	pf.BoolVar(&a.jsonOut, "json", false, "print a JSON run report instead of plain text")
	pf.String("provider", config.ProviderGemini, "model provider: gemini or openai")
	pf.String("vector-store", config.VectorBackendQdrant, "vector store backend: qdrant or chromem")
	pf.String("collection", "", "vector collection name")
	pf.String("chromem-path", config.ChromemPath, "directory of the embedded chromem store")
	pf.String("run-store", config.RunStoreRedis, "run ledger backend: redis or memory")
	pf.String("redis-addr", config.RedisAddr, "redis address of the run ledger")
	pf.Int("max-attempts", config.RetryMaxAttempts, "attempts per external call, 1 disables retries")
	pf.String("pushgateway", "", "prometheus pushgateway url")
	pf.String("log-level", config.LogLevel, "debug, info, warn or error")
	pf.Bool("log-json", false, "log as JSON")

	root.AddCommand(
		newRunCommand(a),
		newIngestCommand(a),
		newAskCommand(a),
		newRunsCommand(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	root.PrintErrln("Error:", err)
	if errors.Is(err, commonModels.ErrConfiguration) {
		return 2
	}
	return 1
}

// loadConfig binds the flags of cmd, reads env and config file and validates
// for mode. It also sets up logging, so it runs first in every command.
func (a *app) loadConfig(cmd *cobra.Command, mode config.Mode) (config.Config, error) {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return config.Config{}, err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = a.v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return config.Config{}, commonModels.ConfigurationError("bind flags", bindErr)
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return config.Config{}, err
	}

	logger_i.Init(logger_i.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: cmd.ErrOrStderr()})
	a.logger = logger_i.NewLogger("main")

	if err := cfg.Validate(mode); err != nil {
		a.logger.Error("Invalid configuration", "error", err)
		return config.Config{}, err
	}
	return cfg, nil
}
