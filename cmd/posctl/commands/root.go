package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tokobesi/terminal/internal/apiclient"
)

type options struct {
	backendURL string
	token      string
	storeID    string
	timeout    time.Duration
	client     *apiclient.Client
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "posctl",
		Short:        "Back-office CLI for the Toko Besi store backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.token == "" {
				opts.token = os.Getenv("POS_TOKEN")
			}
			if opts.storeID == "" {
				opts.storeID = os.Getenv("POS_STORE")
			}
			client, err := apiclient.New(opts.backendURL, opts.timeout, 0)
			if err != nil {
				return err
			}
			opts.client = client
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend", envOr("BACKEND_URL", "http://127.0.0.1:8080/api"), "store backend base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (default $POS_TOKEN)")
	root.PersistentFlags().StringVar(&opts.storeID, "store", "", "store id (default $POS_STORE)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")

	root.AddCommand(
		loginCmd(opts),
		logoutCmd(opts),
		productsCmd(opts),
		salesCmd(opts),
		returnsCmd(opts),
		vouchersCmd(opts),
		settingsCmd(opts),
		reportCmd(opts),
		dashboardCmd(opts),
		storesCmd(opts),
		usersCmd(opts),
	)
	return root
}

// ctx returns the command context carrying the bearer token.
func (o *options) ctx(cmd *cobra.Command) context.Context {
	return apiclient.WithToken(cmd.Context(), o.token)
}

func (o *options) requireToken() error {
	if o.token == "" {
		return fmt.Errorf("no token: run `posctl login` and export POS_TOKEN, or pass --token")
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
