// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FedericoGabusi/smimevault/src/config"
	"github.com/FedericoGabusi/smimevault/src/internal/helper/gc"
	"github.com/FedericoGabusi/smimevault/src/internal/smime"
	"github.com/FedericoGabusi/smimevault/src/internal/store"
	"github.com/FedericoGabusi/smimevault/src/logger"
)

// EnvKeySecret names the environment variable that can carry the
// private-key import secret, keeping it off the process argument list.
const EnvKeySecret = "SMIMEVAULT_KEY_SECRET"

var (
	configFile string
	dbPath     string
	jsonLog    bool
	outputFile string
)

// Execute runs the root command tree, returning any execution error.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	rootCmd := &cobra.Command{
		Use:           "smimevault",
		Short:         "S/MIME certificate vault and message protection",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "certificate store path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "report protection failures as JSON on stderr")

	rootCmd.AddCommand(
		importCmd(log),
		importKeyCmd(log),
		listCmd(),
		chainCmd(),
		exportCmd(),
		signCmd(log),
		encryptCmd(log),
	)

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig resolves the effective configuration, applying flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg, nil
}

// openStore opens the configured certificate store.
func openStore() (*store.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

// failureSink picks where the secure mail engine reports failures.
func failureSink(log logger.Logger) logger.Sink {
	if jsonLog {
		return logger.NewJSONLogger(os.Stderr)
	}
	if sink, ok := log.(logger.Sink); ok {
		return sink
	}
	return logger.NewJSONLogger(os.Stderr)
}

// readInput reads the positional input argument, or stdin for "-"/no args.
func readInput(args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		return os.ReadFile(args[0])
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if _, err := buf.ReadFrom(os.Stdin); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// writeOutput writes result to the --output file, or stdout.
func writeOutput(result []byte) error {
	if outputFile != "" {
		return os.WriteFile(outputFile, result, 0644)
	}
	_, err := os.Stdout.Write(result)
	return err
}

func importCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "import [FILE|-]",
		Short: "Import certificates from PEM material",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return err
			}

			st, _, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			created, err := st.ImportCertificates(raw)
			for _, rec := range created {
				log.Printf("imported %s  %s", rec.Fingerprint, rec.Subject)
			}
			if err != nil {
				return err
			}
			if len(created) == 0 {
				log.Println("no certificate blocks found in input")
			}
			return nil
		},
	}
}

func importKeyCmd(log logger.Logger) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "import-key [FILE|-]",
		Short: "Import private keys and attach them to stored certificates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return err
			}

			if secret == "" {
				secret = os.Getenv(EnvKeySecret)
			}

			st, _, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.ImportPrivateKeys(raw, secret); err != nil {
				return err
			}
			log.Println("private keys imported")
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "key decryption secret (or "+EnvKeySecret+")")
	return cmd
}

func signCmd(log logger.Logger) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "sign [FILE|-]",
		Short: "Produce a detached S/MIME signature over a message body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(args)
			if err != nil {
				return err
			}

			st, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			engine := smime.New(st, cfg, failureSink(log))
			result, err := engine.Sign(smime.Message{From: from, Body: body})
			if err != nil {
				return err
			}
			return writeOutput(result)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "sender address (required)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")
	cmd.MarkFlagRequired("from")
	return cmd
}

func encryptCmd(log logger.Logger) *cobra.Command {
	var to, cc []string

	cmd := &cobra.Command{
		Use:   "encrypt [FILE|-]",
		Short: "Encrypt a message body to recipient certificates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(args)
			if err != nil {
				return err
			}

			st, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			engine := smime.New(st, cfg, failureSink(log))
			result, err := engine.Encrypt(smime.Message{To: to, Cc: cc, Body: body})
			if err != nil {
				return err
			}
			return writeOutput(result)
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient addresses (required)")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "carbon-copy recipient addresses")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")
	cmd.MarkFlagRequired("to")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored certificates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.All()
			if err != nil {
				return err
			}

			fmt.Print(renderRecords(records))
			return nil
		},
	}
}

// joinEmails renders a record's address list for the table, tolerating
// records whose raw material no longer decodes.
func joinEmails(rec *store.Record) string {
	emails, err := rec.EmailAddresses()
	if err != nil {
		return "(undecodable)"
	}
	return strings.Join(emails, ", ")
}
