package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/dsl"
)

var (
	runDB   string
	runNoAI bool
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Hold a conversation in the terminal",
	Long: `Run a conversation script interactively.

The script is a .chat file or the name of a built-in example
(ecommerce, medical). Without an argument the config's script is used,
falling back to the ecommerce example.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConversation,
}

func init() {
	runCmd.Flags().StringVar(&runDB, "db", "", "store DSN (overrides config)")
	runCmd.Flags().BoolVar(&runNoAI, "no-ai", false, "disable the intent classifier and reply generator")
}

func runConversation(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig("warn")
	if err != nil {
		return err
	}

	path := cfg.Script
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		path = "ecommerce"
	}
	script, err := loadScript(path, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store, runDB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	classifier, replier := collaborators(cfg, runNoAI, logger)
	if replier == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "AI features are off: Case matching is exact and AIReply gives a fixed notice.")
	}

	console, err := newConsole(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer console.Close()

	opts := append(messageOptions(cfg),
		dsl.WithStore(st),
		dsl.WithLogger(logger),
	)
	if classifier != nil {
		opts = append(opts, dsl.WithClassifier(classifier), dsl.WithReplier(replier))
	}

	engine := dsl.NewEngine(script, console, opts...)
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// console is a terminal chat.Channel backed by readline.
type console struct {
	rl  *readline.Instance
	out io.Writer
}

func newConsole(out io.Writer) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	return &console{rl: rl, out: out}, nil
}

func (c *console) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := c.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			return "", chat.ErrInputClosed
		}
		return "", err
	}
	return line, nil
}

func (c *console) Write(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "Bot: %s\n", text)
	return err
}

func (c *console) Close() error {
	return c.rl.Close()
}
