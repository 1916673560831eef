package cmd

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"nzbcheck/config"
	"nzbcheck/internal/logging"
	"nzbcheck/internal/nzb"
	"nzbcheck/internal/report"
	"nzbcheck/models"
	"nzbcheck/services/usenet"
)

func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	settings := config.Load()
	var noTLS bool

	rootCmd := &cobra.Command{
		Use:          "nzbcheck <file.nzb>",
		Short:        "Concurrent Usenet NZB completion checker",
		Long:         "nzbcheck parses an NZB file and verifies every unique article against a Usenet server with NNTP STAT, reporting how complete the post is.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.TLS = !noTLS
			if err := settings.Validate(); err != nil {
				return err
			}
			return runCheck(cmd, settings, args[0])
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&settings.Host, "server", "s", settings.Host, "Usenet server address")
	f.IntVarP(&settings.Port, "port", "p", settings.Port, "server port (563 is the NNTPS default)")
	f.StringVarP(&settings.Username, "username", "u", settings.Username, "Usenet username")
	f.StringVarP(&settings.Password, "password", "P", settings.Password, "Usenet password")
	f.IntVarP(&settings.Connections, "connections", "c", settings.Connections, "number of concurrent connections")
	f.BoolVar(&noTLS, "no-tls", false, "connect without TLS")
	f.BoolVar(&settings.ShowMissing, "show-missing", false, "print the list of missing article IDs")
	f.BoolVarP(&settings.Verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&settings.LogFile, "log-file", "", "write logs to this rotating file instead of stderr")

	return rootCmd
}

func runCheck(cmd *cobra.Command, settings config.Settings, nzbPath string) error {
	logger := logging.Setup(settings.Verbose, settings.LogFile)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "[*] Parsing NZB file: %s\n", nzbPath)
	ids, err := nzb.ParseFile(afero.NewOsFs(), nzbPath)
	if err != nil {
		return fmt.Errorf("parse %s: %w", nzbPath, err)
	}

	fmt.Fprintf(out, "[*] Found %d unique articles to check.\n", len(ids))
	fmt.Fprintf(out, "[*] Starting check with %d concurrent connections...\n", settings.Connections)

	checker := usenet.NewChecker(settings, logger)

	var checked atomic.Int64
	total := int64(len(ids))
	checker.OnOutcome = func(models.Outcome) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\rchecked %d/%d", checked.Add(1), total)
	}

	summary, err := checker.Check(cmd.Context(), ids)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, report.Render(summary, settings.ShowMissing))
	return nil
}
