package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailvet/mailvet/internal/output"
	"github.com/mailvet/mailvet/internal/truststore"
)

var (
	allowlistJSON bool
	allowlistWide bool
)

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Manage the certificate fingerprint allow-list",
}

var allowlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List allow-list entries",
	Args:  cobra.NoArgs,
	Example: `  mailvet allowlist list
  mailvet allowlist list -j`,
	RunE: runAllowlistList,
}

var allowlistAddCmd = &cobra.Command{
	Use:   "add <fingerprint>",
	Short: "Validate a fingerprint and append it to the allow-list",
	Long: `Validate operator input strictly (40 or 64 hex chars, or hex pairs with
one consistent separator) and append the normalized form. The running
allow-list is reloaded afterwards.`,
	Args: cobra.ExactArgs(1),
	Example: `  mailvet allowlist add AA:11:BB:22:...
  mailvet allowlist add d7a7a0fb5d7e2731...`,
	RunE: runAllowlistAdd,
}

var allowlistImportCmd = &cobra.Command{
	Use:   "import <bundle>",
	Short: "Import certificate fingerprints from a PEM or PKCS#7 bundle",
	Args:  cobra.ExactArgs(1),
	Example: `  mailvet allowlist import relay-certs.pem
  mailvet allowlist import corporate-ca.p7b`,
	RunE: runAllowlistImport,
}

func init() {
	allowlistListCmd.Flags().BoolVarP(&allowlistJSON, "json", "j", false, "Output in JSON format")
	allowlistListCmd.Flags().BoolVarP(&allowlistWide, "wide", "w", false, "Display full fingerprints without truncation")

	allowlistCmd.AddCommand(allowlistListCmd)
	allowlistCmd.AddCommand(allowlistAddCmd)
	allowlistCmd.AddCommand(allowlistImportCmd)
}

func runAllowlistList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	list := &output.AllowlistList{Path: rt.store.Path()}
	for _, e := range rt.store.Entries() {
		fp := string(e.Fingerprint)
		if !allowlistJSON && !allowlistWide {
			fp = e.Fingerprint.Truncate(4)
		}
		list.Entries = append(list.Entries, output.AllowlistEntry{
			Fingerprint: fp,
			Algorithm:   e.Fingerprint.Algorithm(),
			Line:        e.Line,
		})
	}

	result, err := output.Render(list, output.FromJSONFlag(allowlistJSON))
	if err != nil {
		return err
	}
	if result != "" {
		fmt.Println(result)
	}
	return nil
}

func runAllowlistAdd(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	fp, err := truststore.ParseStrict(args[0])
	if err != nil {
		return err
	}

	if rt.store.Snapshot().Contains(fp) {
		fmt.Printf("already allow-listed: %s\n", fp.Colons())
		return nil
	}

	if err := appendFingerprints(rt.store.Path(), []truststore.Fingerprint{fp}, "allowlist add"); err != nil {
		return err
	}
	rt.store.Reload()

	fmt.Printf("added %s (%d entries)\n", fp.Colons(), rt.store.Snapshot().Len())
	return nil
}

func runAllowlistImport(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}

	certs, err := truststore.CertificatesFromBundle(data)
	if err != nil {
		return fmt.Errorf("parse bundle %s: %w", args[0], err)
	}

	current := rt.store.Snapshot()
	var added []truststore.Fingerprint
	skipped := 0
	for _, cert := range certs {
		fp := truststore.FromCert(cert)
		if current.Contains(fp) {
			skipped++
			continue
		}
		added = append(added, fp)
	}

	if len(added) > 0 {
		if err := appendFingerprints(rt.store.Path(), added, "allowlist import "+args[0]); err != nil {
			return err
		}
		rt.store.Reload()
	}

	fmt.Printf("imported %d, skipped %d already present (%d entries)\n",
		len(added), skipped, rt.store.Snapshot().Len())
	return nil
}

// appendFingerprints appends normalized fingerprints to the allow-list
// file, preceded by a dated provenance comment.
func appendFingerprints(path string, fps []truststore.Fingerprint, source string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open allowlist: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, "# %s (%s)\n", source, time.Now().Format("2006-01-02")); err != nil {
		return fmt.Errorf("write allowlist: %w", err)
	}
	for _, fp := range fps {
		if _, err := fmt.Fprintln(f, fp); err != nil {
			return fmt.Errorf("write allowlist: %w", err)
		}
	}
	return nil
}
