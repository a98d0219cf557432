// Package cmd implements the insight-engine command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"insight-engine/config"
	"insight-engine/datastore"
	"insight-engine/llm"
	"insight-engine/services"
)

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfgFile string
	cfg     *config.Config
	db      *gorm.DB
	store   *datastore.GormGateway
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "insight-engine",
		Short:         "Predicts delivery risks and turns repository analyses into work items.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, toml or json)")

	root.AddCommand(
		newServeCmd(a),
		newPredictCmd(a),
		newAnalyzeCmd(a),
		newSyncPRsCmd(a),
		newExpireCmd(a),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) init(logOut io.Writer) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	slog.SetDefault(config.NewLogger(cfg.Log, logOut))

	db, err := datastore.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	a.db = db
	a.store = datastore.NewGormGateway(db)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// chat returns the configured chat service, or a disabled one when the provider
// cannot be built. Model failures never stop a command.
func (a *app) chat(ctx context.Context) llm.ChatService {
	svc, err := llm.NewChatService(ctx, llm.Config{
		Provider: llm.Provider(a.cfg.LLM.Provider),
		Model:    a.cfg.LLM.Model,
		APIKey:   a.cfg.LLM.APIKey,
		BaseURL:  a.cfg.LLM.BaseURL,
	})
	if err != nil {
		slog.Warn("language model disabled", "provider", a.cfg.LLM.Provider, "err", err)
		return llm.Disabled{}
	}
	return svc
}

func (a *app) predictionService(ctx context.Context) *services.PredictionService {
	return services.NewPredictionService(a.store, a.chat(ctx), services.PredictionOptions{
		TTL:              a.cfg.Predictions.TTL,
		BurnoutSupersede: a.cfg.Predictions.BurnoutSupersede,
		ReasoningTimeout: a.cfg.LLM.Timeout,
	})
}

func (a *app) analyzer(ctx context.Context) *services.Analyzer {
	return services.NewAnalyzer(a.store, a.chat(ctx), services.AnalyzerOptions{
		Similarity: services.PrefixSimilarity{PrefixLength: a.cfg.Analyzer.DedupPrefixLength},
		Validity:   a.cfg.Analyzer.Validity,
		Timeout:    a.cfg.LLM.Timeout,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
