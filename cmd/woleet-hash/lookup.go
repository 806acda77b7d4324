package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/whtech/woleet-weblibs/internal/hashfile"
	"github.com/whtech/woleet-weblibs/internal/logging"
	"github.com/whtech/woleet-weblibs/internal/woleet"
)

// print renders v as yaml, or as indented json with --json.
func (a *app) print(out io.Writer, v any) error {
	if a.flags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <file|sha256>",
		Short: "Print the digest of a file, or check that a digest is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input any = args[0]
			if !woleet.IsSHA256(args[0]) {
				f, err := hashfile.OpenFile(args[0])
				if err != nil {
					return err
				}
				input = f
			}
			digest, err := hashfile.Resolve(cmd.Context(), input, hashfile.WithHasherOptions(
				hashfile.WithHost(a.cfg.HashHost()),
				hashfile.WithLimits(a.cfg.HashLimits()),
				hashfile.WithLogger(logging.FromContext(cmd.Context())),
			))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
}

func newTxCmd(a *app) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "tx <txid>",
		Short: "Look up a bitcoin transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.client()
			if provider != "" {
				c.SetDefaultProvider(provider)
			}
			logging.FromContext(cmd.Context()).Debug("transaction lookup", "tx", args[0], "provider", c.Provider())

			tx, err := c.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), tx)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "woleet.io, chain.so or blockcypher.com")
	return cmd
}

func newReceiptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <anchorId>",
		Short: "Fetch the proof receipt of an anchor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.client().GetReceipt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), r)
		},
	}
}

func newAnchorsCmd(a *app) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "anchors <sha256>",
		Short: "List the anchor ids of a digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !woleet.IsSHA256(args[0]) {
				return hashfile.ErrNotASha256Hash
			}
			page, err := a.client().GetAnchorIDs(cmd.Context(), args[0], size)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		},
	}
}
