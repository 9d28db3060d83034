package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"horas/internal/app"
	"horas/internal/config"
	"horas/internal/csvimport"
	"horas/internal/encryption"
	"horas/internal/model"
	"horas/internal/report"
	"horas/internal/toggl"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a HorasApp. The caller must defer
// app.Close(). operation identifies the CLI command being run.
func newApp(ctx context.Context, operation string) (*app.HorasApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewHorasApp(ctx, cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// promptSecret reads a line from the terminal without echoing it.
func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// unlock prompts for the passphrase and unlocks the token cipher,
// setting up the key pair on first use.
func unlock(a *app.HorasApp) (encryption.Decrypter, error) {
	cipher := a.Cipher()
	if !cipher.IsConfigured() {
		fmt.Println("No encryption keys found; setting up now.")
		passphrase, err := promptSecret("New passphrase")
		if err != nil {
			return nil, err
		}
		confirm, err := promptSecret("Confirm passphrase")
		if err != nil {
			return nil, err
		}
		if passphrase != confirm {
			return nil, fmt.Errorf("passphrases do not match")
		}
		if err := cipher.Setup(passphrase); err != nil {
			return nil, fmt.Errorf("setting up encryption: %w", err)
		}
		return cipher.Unlock(passphrase)
	}

	passphrase, err := promptSecret("Passphrase")
	if err != nil {
		return nil, err
	}
	return cipher.Unlock(passphrase)
}

var rootCmd = &cobra.Command{
	Use:   "horas",
	Short: "Client hours reporting from provider time entries",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:   %s\n", cfg.HostID)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Provider:  %s (spans up to %d days, %d retries)\n",
			cfg.Provider.BaseURL, cfg.Provider.MaxSpanDays, cfg.Provider.MaxRetries)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		fmt.Printf("Archive:   %s (%s)\n", cfg.Archive.Type, cfg.Archive.Name)
		return nil
	},
}

var configArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the snapshot archive",
}

var configArchiveValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Verify archive access",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ValidateArchive")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Archive().ValidateSetup(ctx); err != nil {
			return fmt.Errorf("archive validation failed: %w", err)
		}
		fmt.Println("Archive is accessible.")
		return nil
	},
}

// account command

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage provider accounts",
}

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a provider account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "AddAccount")
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Cipher().IsConfigured() {
			// Key generation needs the passphrase; encryption itself does not.
			if _, err := unlock(a); err != nil {
				return err
			}
		}

		token, err := promptSecret("API token")
		if err != nil {
			return err
		}
		if token == "" {
			return fmt.Errorf("token is required")
		}

		acct, err := a.Service().AddAccount(ctx, token, a.Cipher())
		if err != nil {
			return fmt.Errorf("adding account: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Added account %s (%s <%s>)\n", acct.ID, acct.Fullname, acct.Email)
		fmt.Printf("Workspaces: %d, Clients: %d, Projects: %d\n",
			len(acct.Directory.Workspaces), len(acct.Directory.Clients), len(acct.Directory.Projects))
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List provider accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ListAccounts")
		if err != nil {
			return err
		}
		defer a.Close()

		accounts, err := a.Service().ListAccounts(ctx)
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts.")
			return nil
		}
		for _, acct := range accounts {
			fmt.Printf("%s  %-20s  %s  (refreshed %s)\n",
				acct.ID, acct.Fullname, acct.Email,
				acct.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var accountRefreshCmd = &cobra.Command{
	Use:   "refresh ACCOUNT_ID",
	Short: "Re-fetch an account's workspaces, clients and projects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "RefreshAccount")
		if err != nil {
			return err
		}
		defer a.Close()

		decrypter, err := unlock(a)
		if err != nil {
			return err
		}

		acct, err := a.Service().RefreshAccount(ctx, args[0], decrypter)
		if err != nil {
			return fmt.Errorf("refreshing account: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Refreshed account %s (%s)\n", acct.ID, acct.Fullname)
		return nil
	},
}

var accountRemoveCmd = &cobra.Command{
	Use:   "remove ACCOUNT_ID",
	Short: "Remove a provider account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "RemoveAccount")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().RemoveAccount(ctx, args[0]); err != nil {
			return fmt.Errorf("removing account: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Removed account %s\n", args[0])
		return nil
	},
}

// report command

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage reports",
}

var reportCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, _ := cmd.Flags().GetFloat64("hours")
		price, _ := cmd.Flags().GetFloat64("price")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		packageID, _ := cmd.Flags().GetString("package")

		ctx := cmd.Context()
		a, err := newApp(ctx, "CreateReport")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().CreateReport(ctx, args[0], packageID, hours, price, start, end)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Created report %s (%s)\n", r.ID, r.Name)
		fmt.Printf("Public URL token: %s\n", r.PublicURL)
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		includeDeleted, _ := cmd.Flags().GetBool("all")

		ctx := cmd.Context()
		a, err := newApp(ctx, "ListReports")
		if err != nil {
			return err
		}
		defer a.Close()

		reports, err := a.Service().ListReports(ctx, includeDeleted)
		if err != nil {
			return err
		}

		if len(reports) == 0 {
			fmt.Println("No reports.")
			return nil
		}
		for _, r := range reports {
			status := "active"
			if !r.IsActive {
				status = "deleted"
			}
			fmt.Printf("%s  %-25s  %7.1fh of %7.1fh  %-7s  synced %s\n",
				r.ID, r.Name,
				r.Summary.TotalHoursConsumed, r.TotalHours,
				status,
				r.LastUpdated.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show REPORT",
	Short: "Show a report and its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ShowReport")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().GetReport(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", r.Name, r.ID)
		fmt.Printf("Period: %s .. %s\n", r.StartDate, orNone(r.EndDate))
		fmt.Printf("Public URL token: %s\n", r.PublicURL)
		fmt.Printf("Consumed: %.2fh of %.2fh (%.1f%%)\n",
			r.Summary.TotalHoursConsumed, r.Summary.TotalHoursAvailable, r.Summary.ConsumptionPercentage)
		fmt.Printf("Velocity: %.2fh/day, estimated %d day(s) remaining\n",
			r.Summary.ConsumptionSpeed, r.Summary.EstimatedDaysRemaining)
		fmt.Printf("Entries: %d across %d task(s)\n", len(r.Entries), r.Summary.CompletedTasks)

		if len(r.Tags) > 0 {
			fmt.Println("\nTags:")
			for _, t := range r.Tags {
				fmt.Printf("  %-20s  %s\n", t.Name, t.Status)
			}
		}
		if len(r.Configs) > 0 {
			fmt.Println("\nSources:")
			for _, c := range r.Configs {
				fmt.Printf("  %s  account=%s workspace=%s client=%s project=%s\n",
					c.ID, c.AccountID, orAny(c.WorkspaceID), orAny(c.ClientID), orAny(c.ProjectID))
			}
		}
		if len(r.Summary.TeamDistribution) > 0 {
			fmt.Println("\nTeam:")
			for _, o := range r.Summary.TeamDistribution {
				fmt.Printf("  %-20s  %7.2fh\n", o.Name, o.Hours)
			}
		}
		return nil
	},
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete REPORT",
	Short: "Delete a report (kept on disk, hidden from listings)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "DeleteReport")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteReport(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting report: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Deleted report %s\n", args[0])
		return nil
	},
}

var reportSourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage a report's entry sources",
}

var reportSourceAddCmd = &cobra.Command{
	Use:   "add REPORT",
	Short: "Attach an account as an entry source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, _ := cmd.Flags().GetString("account")
		workspace, _ := cmd.Flags().GetInt64("workspace")
		client, _ := cmd.Flags().GetInt64("client")
		project, _ := cmd.Flags().GetInt64("project")

		if accountID == "" {
			return fmt.Errorf("--account is required")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "AddSource")
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := model.SourceConfig{
			AccountID:   accountID,
			WorkspaceID: workspace,
			ClientID:    client,
			ProjectID:   project,
		}
		r, err := a.Service().AddSource(ctx, args[0], cfg)
		if err != nil {
			return fmt.Errorf("adding source: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Report %s now has %d source(s)\n", r.ID, len(r.Configs))
		return nil
	},
}

var reportSourceRemoveCmd = &cobra.Command{
	Use:   "remove REPORT CONFIG_ID",
	Short: "Detach an entry source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "RemoveSource")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().RemoveSource(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("removing source: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Report %s now has %d source(s)\n", r.ID, len(r.Configs))
		return nil
	},
}

// tag command

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage report tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add REPORT NAME",
	Short: "Add an active tag to a report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTagChange(cmd, "AddTag", args[0], func(ctx context.Context, svc *report.Service) (*model.Report, error) {
			return svc.AddTag(ctx, args[0], args[1])
		})
	},
}

var tagCompleteCmd = &cobra.Command{
	Use:   "complete REPORT NAME",
	Short: "Mark a report tag completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTagChange(cmd, "CompleteTag", args[0], func(ctx context.Context, svc *report.Service) (*model.Report, error) {
			return svc.CompleteTag(ctx, args[0], args[1])
		})
	},
}

var tagActivateCmd = &cobra.Command{
	Use:   "activate REPORT NAME",
	Short: "Mark a report tag active",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTagChange(cmd, "ActivateTag", args[0], func(ctx context.Context, svc *report.Service) (*model.Report, error) {
			return svc.ActivateTag(ctx, args[0], args[1])
		})
	},
}

func runTagChange(cmd *cobra.Command, operation, reportRef string, fn func(context.Context, *report.Service) (*model.Report, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, operation)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := fn(ctx, a.Service())
	if err != nil {
		return err
	}
	a.MarkMutated()

	fmt.Printf("Report %s tags:\n", r.ID)
	for _, t := range r.Tags {
		fmt.Printf("  %-20s  %s\n", t.Name, t.Status)
	}
	return nil
}

// import command

var importCmd = &cobra.Command{
	Use:   "import REPORT FILE",
	Short: "Import historical entries from CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ImportEntries")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("opening csv file: %w", err)
		}
		defer f.Close()

		entries, err := csvimport.Parse(f, time.Now())
		if err != nil {
			return fmt.Errorf("parsing csv: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No entries found in file.")
			return nil
		}

		r, err := a.Service().ImportEntries(ctx, args[0], entries)
		if err != nil {
			return fmt.Errorf("importing entries: %w", err)
		}
		a.MarkMutated()

		fmt.Printf("Imported %d entrie(s) into report %s (%d total)\n", len(entries), r.ID, len(r.Entries))
		return nil
	},
}

// sync command

var syncCmd = &cobra.Command{
	Use:   "sync [REPORT]",
	Short: "Sync provider entries into reports",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("specify a report or pass --all")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		decrypter, err := unlock(a)
		if err != nil {
			return err
		}

		if all {
			ops, err := a.Service().SyncAll(ctx, decrypter)
			for _, op := range ops {
				printOperation(op)
			}
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			a.MarkMutated()
			return nil
		}

		op, err := a.Service().Sync(ctx, args[0], decrypter)
		if op != nil {
			printOperation(op)
		}
		if err != nil {
			return explainSyncError(err)
		}
		a.MarkMutated()
		return nil
	},
}

// watch command

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync all reports periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < time.Minute {
			return fmt.Errorf("interval must be at least 1m")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		decrypter, err := unlock(a)
		if err != nil {
			return err
		}
		a.MarkMutated()

		fmt.Printf("Syncing all reports every %s. Ctrl-C to stop.\n", interval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			ops, err := a.Service().SyncAll(ctx, decrypter)
			for _, op := range ops {
				printOperation(op)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "sync: %v\n", err)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

// history command

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := cmd.Context()
		a, err := newApp(ctx, "History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Service().History(ctx, limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No sync operations recorded.")
			return nil
		}
		for _, op := range ops {
			duration := ""
			if !op.FinishedAt.IsZero() {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-8s  %s  %-9s  %-8s  %s\n",
				op.ID, op.Type,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status, duration, op.Detail)
		}
		return nil
	},
}

// limits command

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "View provider quota status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "Limits")
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.LimitStatus()
		if err != nil {
			return err
		}

		for _, scope := range []toggl.Scope{toggl.ScopeIdentity, toggl.ScopeWorkspace} {
			wait := status[scope]
			if wait > 0 {
				fmt.Printf("%-10s  throttled, resets in %s\n", scope, wait.Truncate(time.Second))
			} else {
				fmt.Printf("%-10s  ok\n", scope)
			}
		}
		fmt.Printf("\nEarliest fetchable date: %s\n", a.MinDate().Format("2006-01-02"))
		return nil
	},
}

func printOperation(op *report.Operation) {
	fmt.Printf("Sync %s: report=%s status=%s", op.ID, op.ReportID, op.Status)
	if op.Detail != "" {
		fmt.Printf(" (%s)", op.Detail)
	}
	fmt.Println()
}

func explainSyncError(err error) error {
	var throttled *toggl.ThrottledError
	if errors.As(err, &throttled) {
		return fmt.Errorf("provider quota exhausted (%s scope); retry in %s",
			throttled.Scope, throttled.RetryAfter.Truncate(time.Second))
	}
	return fmt.Errorf("sync: %w", err)
}

func orNone(s string) string {
	if s == "" {
		return "(open)"
	}
	return s
}

func orAny(id int64) string {
	if id == 0 {
		return "*"
	}
	return fmt.Sprintf("%d", id)
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configArchiveCmd)
	configArchiveCmd.AddCommand(configArchiveValidateCmd)

	// account subcommands
	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountRefreshCmd)
	accountCmd.AddCommand(accountRemoveCmd)

	// report subcommands
	reportCmd.AddCommand(reportCreateCmd)
	reportCreateCmd.Flags().Float64("hours", 0, "Contracted hours budget")
	reportCreateCmd.Flags().Float64("price", 0, "Package price")
	reportCreateCmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	reportCreateCmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	reportCreateCmd.Flags().String("package", "", "External package identifier")
	reportCmd.AddCommand(reportListCmd)
	reportListCmd.Flags().Bool("all", false, "Include deleted reports")
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportDeleteCmd)
	reportCmd.AddCommand(reportSourceCmd)
	reportSourceCmd.AddCommand(reportSourceAddCmd)
	reportSourceAddCmd.Flags().String("account", "", "Account ID (required)")
	reportSourceAddCmd.Flags().Int64("workspace", 0, "Workspace ID (default: account's first workspace)")
	reportSourceAddCmd.Flags().Int64("client", 0, "Restrict to a client ID")
	reportSourceAddCmd.Flags().Int64("project", 0, "Restrict to a project ID")
	reportSourceCmd.AddCommand(reportSourceRemoveCmd)

	// tag subcommands
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagCompleteCmd)
	tagCmd.AddCommand(tagActivateCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("all", false, "Sync every active report")
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("interval", 15*time.Minute, "Time between syncs")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(limitsCmd)
}
