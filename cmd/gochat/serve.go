package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/examples"
	"github.com/everydev1618/gochat/serve"
)

var (
	serveAddr  string
	serveDB    string
	serveStore string
	serveWatch bool
	serveNoAI  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [script...]",
	Short: "Serve concurrent conversations over HTTP",
	Long: `Start the HTTP API for many simultaneous conversations.

Each script is registered under its module name; the first one is the
default for new sessions. Without arguments the built-in examples are
served. --watch reloads the first script file when it changes.`,
	Example: `  gochat serve
  gochat serve shop.chat --addr :9000 --watch
  gochat serve shop.chat clinic.chat --db /tmp/sessions.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "transcript database path (default ~/.gochat/sessions.db)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "store DSN (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the script file when it changes")
	serveCmd.Flags().BoolVar(&serveNoAI, "no-ai", false, "disable the intent classifier and reply generator")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig("")
	if err != nil {
		return err
	}
	if err := chat.EnsureHome(); err != nil {
		return fmt.Errorf("create home: %w", err)
	}

	paths := args
	if len(paths) == 0 && cfg.Script != "" {
		paths = []string{cfg.Script}
	}
	if len(paths) == 0 {
		paths = examples.Names()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store, serveStore)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	classifier, replier := collaborators(cfg, serveNoAI, logger)

	srvCfg := serve.Config{
		Addr:       cfg.Serve.Addr,
		DBPath:     cfg.Serve.DB,
		ScriptPath: paths[0],
		Watch:      cfg.Serve.Watch || serveWatch,
	}
	if serveAddr != "" {
		srvCfg.Addr = serveAddr
	}
	if serveDB != "" {
		srvCfg.DBPath = serveDB
	}
	if srvCfg.Watch {
		if _, err := os.Stat(paths[0]); err != nil {
			logger.Warn("watch disabled: first script is not a file", "script", paths[0])
			srvCfg.Watch = false
		}
	}

	srv := serve.New(srvCfg, serve.ManagerConfig{
		Classifier:  classifier,
		Replier:     replier,
		Store:       st,
		ExitWords:   cfg.ExitWords,
		History:     cfg.LLM.History,
		Apology:     cfg.Messages.Apology,
		AIUnavail:   cfg.Messages.AIUnavailable,
		IdleTimeout: cfg.Serve.IdleTimeout,
		Logger:      logger,
	})

	for _, p := range paths {
		script, err := loadScript(p, logger)
		if err != nil {
			return err
		}
		srv.Manager().SetScript(script)
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded: %s (module %q, %d steps)\n", p, script.Module, len(script.Steps))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API:     http://localhost%s/api/sessions\n", srvCfg.Addr)

	return srv.Start(ctx)
}
