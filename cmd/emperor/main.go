package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"emperor/internal/api"
	cl "emperor/internal/cli"
	"emperor/internal/config"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "emperor",
		Short:        "Emperor throne-bidding CLI client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "action API base URL")

	root.AddCommand(
		newStatusCmd(&apiBase),
		newClaimCmd(&apiBase),
		newQRCmd(&apiBase),
		newWatchCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current throne and the next required bid",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			desc, err := newClient(apiBase).Descriptor(ctx, api.ActionPath)
			if err != nil {
				return err
			}
			printDescriptor(desc)
			return nil
		},
	}
}

func newClaimCmd(apiBase *string) *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Build an unsigned claim-throne transaction for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			account = strings.TrimSpace(account)
			if account == "" {
				return fmt.Errorf("--account is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Claim(ctx, api.ActionPath, account)
			if err != nil {
				return err
			}
			printSuccess(out.Message)
			printNeutral("Sign and submit with your wallet:")
			fmt.Println(out.Transaction)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "base58 public key that will pay the bid")
	return cmd
}

func newQRCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "qr",
		Short: "Print a scannable QR code for the claim-throne blink",
		RunE: func(cmd *cobra.Command, args []string) error {
			actionURL := strings.TrimRight(strings.TrimSpace(*apiBase), "/") + api.ActionPath
			blink := "https://dial.to/?action=" + url.QueryEscape("solana-action:"+actionURL)
			printAccent("Scan to open the claim-throne action:")
			qrterminal.GenerateHalfBlock(blink, qrterminal.L, os.Stdout)
			printNeutral(blink)
			return nil
		},
	}
}

func newWatchCmd(apiBase *string) *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the throne live",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchUI(newClient(apiBase), every)
		},
	}
	cmd.Flags().DurationVar(&every, "every", 10*time.Second, "poll interval")
	return cmd
}
