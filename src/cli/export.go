// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"crypto/x509"
	"errors"

	"github.com/spf13/cobra"

	x509certs "github.com/FedericoGabusi/smimevault/src/internal/x509/certs"
	x509chain "github.com/FedericoGabusi/smimevault/src/internal/x509/chain"
)

// decoder backs the certificate-material commands (chain, export).
var decoder = x509certs.New()

func chainCmd() *cobra.Command {
	var der, intermediatesOnly bool

	cmd := &cobra.Command{
		Use:   "chain [FILE|-]",
		Short: "Resolve a certificate's issuer chain against the store",
		Long: "Reads a PEM certificate (or bundle; the first certificate is the leaf),\n" +
			"walks its issuer linkage through the store, and emits the leaf followed\n" +
			"by every issuer found, in leaf-to-root order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return err
			}

			certs, err := decoder.DecodeMultiple(raw)
			if err != nil {
				return err
			}
			if len(certs) == 0 {
				return errors.New("no certificate found in input")
			}

			st, _, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			parents, err := x509chain.New(st).Build(certs[0])
			if err != nil {
				return err
			}

			chain := append([]*x509.Certificate{certs[0]}, parents...)
			if intermediatesOnly {
				chain = x509chain.FilterIntermediates(chain)
			}

			if der {
				return writeOutput(decoder.EncodeMultipleDER(chain))
			}
			return writeOutput(decoder.EncodeMultiplePEM(chain))
		},
	}

	cmd.Flags().BoolVar(&der, "der", false, "emit raw DER instead of PEM")
	cmd.Flags().BoolVar(&intermediatesOnly, "intermediates-only", false, "emit only the certificates between leaf and root")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")
	return cmd
}

func exportCmd() *cobra.Command {
	var fingerprint string
	var withKey bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored certificate as PEM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.FindByFingerprint(fingerprint)
			if err != nil {
				return err
			}

			cert, err := rec.Certificate()
			if err != nil {
				return err
			}

			out := decoder.EncodePEM(cert)
			if withKey {
				if !rec.HasPrivateKey() {
					return errors.New("record has no private key attached")
				}

				key, err := decoder.DecodePrivateKey([]byte(rec.PrivateKey), rec.PrivateKeySecret)
				if err != nil {
					return err
				}
				out = append(out, decoder.EncodePrivateKeyPEM(key)...)
			}
			return writeOutput(out)
		},
	}

	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "certificate fingerprint (required)")
	cmd.Flags().BoolVar(&withKey, "with-key", false, "include the decrypted private key")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")
	cmd.MarkFlagRequired("fingerprint")
	return cmd
}
