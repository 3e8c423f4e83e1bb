package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
)

// clientOptions are the flags shared by every API command.
type clientOptions struct {
	baseURL    string
	timeout    time.Duration
	initData   string
	telegramID int64
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}

	rootCmd := &cobra.Command{
		Use:           "cashledger-cli",
		Short:         "Cash ledger CLI tool",
		Long:          `A command line interface for the cash ledger API: reports, exports and local init-data signing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the cash ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.initData, "init-data", os.Getenv("CASHLEDGER_INIT_DATA"), "Signed Telegram init data sent as "+middleware.InitDataHeader)
	rootCmd.PersistentFlags().Int64Var(&opts.telegramID, "telegram-id", 0, "Telegram id sent as "+middleware.DebugIDHeader+" (server must run with AUTH_DEBUG_BYPASS)")

	rootCmd.AddCommand(newReportCmd(opts), newExportCmd(opts), newSignInitDataCmd())

	return rootCmd
}

func newReportCmd(opts *clientOptions) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Report queries",
	}

	simple := map[string]string{
		"balances":     "/api/v1/reports/balances",
		"client-debts": "/api/v1/reports/client-debts",
		"cash-total":   "/api/v1/reports/cash-total",
	}
	for name, path := range simple {
		path := path
		reportCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "Show " + name,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd, http.MethodGet, path)
			},
		})
	}

	var date string
	dailyCmd := &cobra.Command{
		Use:   "daily-profit",
		Short: "Show net flow per currency for one UTC day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/reports/daily-profit"
			if date != "" {
				if _, err := domain.ParseDay(date); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				path += "?date=" + url.QueryEscape(date)
			}
			return opts.call(cmd, http.MethodGet, path)
		},
	}
	dailyCmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (default today, UTC)")
	reportCmd.AddCommand(dailyCmd)

	return reportCmd
}

func newExportCmd(opts *clientOptions) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Daily export operations",
	}

	exportCmd.AddCommand(
		&cobra.Command{
			Use:   "run [date]",
			Short: "Export a day now and wait for delivery",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				day, err := dayArg(args)
				if err != nil {
					return err
				}
				return opts.call(cmd, http.MethodPost, "/api/v1/exports/"+day)
			},
		},
		&cobra.Command{
			Use:   "status [date]",
			Short: "Show the latest export run for a day",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				day, err := dayArg(args)
				if err != nil {
					return err
				}
				return opts.call(cmd, http.MethodGet, "/api/v1/exports/"+day)
			},
		},
	)

	return exportCmd
}

func newSignInitDataCmd() *cobra.Command {
	var (
		botToken  string
		userID    int64
		username  string
		firstName string
		authDate  int64
	)

	cmd := &cobra.Command{
		Use:   "sign-init-data",
		Short: "Print signed Telegram init data for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if botToken == "" {
				return fmt.Errorf("--bot-token or TELEGRAM_BOT_TOKEN is required")
			}
			if userID <= 0 {
				return fmt.Errorf("--user-id must be a positive Telegram id")
			}
			if authDate == 0 {
				authDate = time.Now().Unix()
			}

			user, err := json.Marshal(map[string]any{
				"id":         userID,
				"username":   username,
				"first_name": firstName,
			})
			if err != nil {
				return err
			}

			verifier := auth.NewVerifier(botToken, 0)
			fmt.Fprintln(cmd.OutOrStdout(), verifier.SignedInitData(url.Values{
				"auth_date": {strconv.FormatInt(authDate, 10)},
				"user":      {string(user)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&botToken, "bot-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Bot token used to sign")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "Telegram user id")
	cmd.Flags().StringVar(&username, "username", "", "Telegram username")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Telegram first name")
	cmd.Flags().Int64Var(&authDate, "auth-date", 0, "Unix auth_date (default now)")

	return cmd
}

func dayArg(args []string) (string, error) {
	if len(args) == 0 {
		return domain.DayOf(time.Now()).String(), nil
	}
	if _, err := domain.ParseDay(args[0]); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", args[0], err)
	}
	return args[0], nil
}

// call sends an authenticated request and pretty-prints the JSON reply.
func (o *clientOptions) call(cmd *cobra.Command, method, path string) error {
	req, err := http.NewRequestWithContext(cmd.Context(), method, o.baseURL+path, nil)
	if err != nil {
		return err
	}

	switch {
	case o.initData != "":
		req.Header.Set(middleware.InitDataHeader, o.initData)
	case o.telegramID != 0:
		req.Header.Set(middleware.DebugIDHeader, strconv.FormatInt(o.telegramID, 10))
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := printJSON(cmd.OutOrStdout(), body); err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}

func printJSON(w io.Writer, body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		_, werr := fmt.Fprintln(w, string(body))
		return werr
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}
