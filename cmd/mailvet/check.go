package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailvet/mailvet/internal/output"
	"github.com/mailvet/mailvet/internal/probe"
)

var (
	checkJSON    bool
	checkTimeout time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check <host[:port]>",
	Short: "Probe an SMTP endpoint's STARTTLS certificate trust",
	Long: `Connect to an SMTP endpoint, negotiate STARTTLS and report the trust
decision for the presented certificate without sending mail. Default port
is 587.`,
	Args: cobra.ExactArgs(1),
	Example: `  mailvet check smtp.example.com
  mailvet check -j smtp.example.com:25`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkJSON, "json", "j", false, "Output in JSON format")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Second, "Connection timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	report, err := probe.Run(cmd.Context(), args[0], rt.val, checkTimeout)
	if err != nil {
		return err
	}

	cr := &output.CheckReport{Report: report}
	result, err := output.Render(cr, output.FromJSONFlag(checkJSON))
	if err != nil {
		return err
	}
	fmt.Println(result)

	if !report.Outcome.Accepted() {
		os.Exit(ExitTrustFail)
	}
	return nil
}
