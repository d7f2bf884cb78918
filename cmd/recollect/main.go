package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/recollect/ai"
	"github.com/hrygo/recollect/internal/profile"
	"github.com/hrygo/recollect/internal/version"
	"github.com/hrygo/recollect/memory"
	"github.com/hrygo/recollect/server"
	"github.com/hrygo/recollect/store"
	"github.com/hrygo/recollect/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "recollect",
	Short: `A consolidation and retrieval engine for conversational memory. Summaries come in, near-duplicates get merged, agents search the rest.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Systemd services get their environment from the unit file.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		level := slog.LevelInfo
		if instanceProfile.IsDev() {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

		ctx, cancel := context.WithCancel(context.Background())
		dbDriver, err := db.NewDriver(instanceProfile)
		if err != nil {
			cancel()
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver)
		if err := storeInstance.Migrate(ctx); err != nil {
			cancel()
			slog.Error("failed to migrate", "error", err)
			return
		}

		embedder, err := ai.NewEmbeddingService(ai.NewEmbeddingConfig(instanceProfile))
		if err != nil {
			cancel()
			slog.Error("failed to create embedding service", "error", err)
			return
		}

		repo := memory.NewRepository(storeInstance, embedder, memory.Config{
			MergeDistance:     instanceProfile.MergeDistance,
			MergeTopK:         instanceProfile.MergeTopK,
			RetrievalDistance: instanceProfile.RetrievalDistance,
			RetrievalTopK:     instanceProfile.RetrievalTopK,
		})

		// Without an LLM key the engine still stores and searches; merge
		// consolidation and summarization are off.
		var consolidator *memory.Consolidator
		if instanceProfile.IsAIEnabled() {
			llm, err := ai.NewLLMService(ai.NewLLMConfig(instanceProfile))
			if err != nil {
				slog.Warn("failed to create LLM service, consolidation disabled", "error", err)
			} else {
				consolidator = memory.NewConsolidator(repo, llm)
				slog.Info("LLM service initialized",
					"provider", instanceProfile.LLMProvider,
					"model", instanceProfile.LLMModel,
				)
			}
		} else {
			slog.Info("no LLM API key configured, consolidation disabled")
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, repo, consolidator)
		if err != nil {
			cancel()
			slog.Error("failed to create server", "error", err)
			return
		}

		c := make(chan os.Signal, 1)
		// SIGTERM is what process managers send for graceful shutdown.
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			cancel()
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "postgres")
	viper.SetDefault("port", 28091)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28091, "port of server")
	rootCmd.PersistentFlags().String("driver", "postgres", "store driver (postgres, embedded)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("recollect")
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Recollect %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Store driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
