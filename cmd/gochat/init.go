package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/examples"
	"github.com/everydev1618/gochat/store"
)

var (
	initDB    string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up ~/.gochat with example scripts and a demo database",
	Long: `Create the gochat home directory, write the example scripts into it
and create the demo shop database (goods and orders). Running init again
resets the demo rows.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initDB, "db", "", "store DSN to seed (default from config)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite example scripts that already exist")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig("warn")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if err := chat.EnsureHome(); err != nil {
		return fmt.Errorf("create home: %w", err)
	}
	fmt.Fprintf(out, "Home:    %s\n", chat.Home())

	for _, name := range examples.Names() {
		dst := filepath.Join(chat.ScriptsPath(), name)
		if _, err := os.Stat(dst); err == nil && !initForce {
			fmt.Fprintf(out, "  kept    %s\n", dst)
			continue
		}
		src, err := examples.Read(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, src, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		fmt.Fprintf(out, "  wrote   %s\n", dst)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg.Store, initDB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := store.Seed(ctx, st); err != nil {
		return err
	}
	dsn := cfg.Store.DSN
	if initDB != "" {
		dsn = initDB
	}
	fmt.Fprintf(out, "Seeded:  %s\n", dsn)

	fmt.Fprintf(out, "\nNext steps:\n  gochat run %s\n  gochat serve\n",
		filepath.Join(chat.ScriptsPath(), "ecommerce.chat"))
	return nil
}
