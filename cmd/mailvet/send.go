package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailvet/mailvet/internal/dispatch"
)

var (
	sendFrom     string
	sendTo       string
	sendCc       string
	sendBcc      string
	sendSubject  string
	sendBody     string
	sendBodyFile string
	sendHTMLFile string
	sendAttach   []string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Dispatch one message over SMTP with STARTTLS",
	Long: `Send a message through the configured SMTP endpoint. The connection is
upgraded with STARTTLS and the server certificate is accepted only when it
passes chain validation or its fingerprint is on the allow-list.`,
	Args: cobra.NoArgs,
	Example: `  mailvet send -t ops@example.com -s "disk alert" -b "90% full"
  mailvet send -t "a@example.com; b@example.com" -s report --body-file report.txt -a graph.png`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendFrom, "from", "", "Sender address (defaults to MAILVET_FROM)")
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "Recipients, comma- or semicolon-separated")
	sendCmd.Flags().StringVar(&sendCc, "cc", "", "Cc recipients")
	sendCmd.Flags().StringVar(&sendBcc, "bcc", "", "Bcc recipients")
	sendCmd.Flags().StringVarP(&sendSubject, "subject", "s", "", "Message subject")
	sendCmd.Flags().StringVarP(&sendBody, "body", "b", "", "Plain text body")
	sendCmd.Flags().StringVar(&sendBodyFile, "body-file", "", "Read plain text body from file")
	sendCmd.Flags().StringVar(&sendHTMLFile, "html-file", "", "Read HTML body from file")
	sendCmd.Flags().StringArrayVarP(&sendAttach, "attach", "a", nil, "Attachment path (repeatable)")
	_ = sendCmd.MarkFlagRequired("to")
}

func runSend(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	if rt.cfg.SMTPHost == "" {
		return fmt.Errorf("no SMTP host configured (set MAILVET_SMTP_HOST)")
	}

	req := dispatch.Request{
		From:        sendFrom,
		To:          sendTo,
		Cc:          sendCc,
		Bcc:         sendBcc,
		Subject:     sendSubject,
		Body:        sendBody,
		Attachments: sendAttach,
	}

	if sendBodyFile != "" {
		data, err := os.ReadFile(sendBodyFile)
		if err != nil {
			return fmt.Errorf("read body file: %w", err)
		}
		req.Body = string(data)
	}
	if sendHTMLFile != "" {
		data, err := os.ReadFile(sendHTMLFile)
		if err != nil {
			return fmt.Errorf("read html file: %w", err)
		}
		req.HTMLBody = string(data)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Timeout)
	defer cancel()

	mailer := dispatch.New(rt.cfg, rt.val)
	if err := mailer.Send(ctx, req); err != nil {
		// A rejected server certificate aborts the handshake and lands
		// here like any other send failure; the audit log carries the
		// diagnostic record.
		return err
	}

	fmt.Printf("sent via %s\n", rt.cfg.Addr())
	return nil
}
