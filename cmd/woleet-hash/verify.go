package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whtech/woleet-weblibs/internal/hashfile"
	"github.com/whtech/woleet-weblibs/internal/logging"
	"github.com/whtech/woleet-weblibs/internal/manifest"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <manifest>",
		Short: "Re-hash the files listed in a manifest and compare digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.verify(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) verify(ctx context.Context, out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger := logging.FromContext(ctx)

	// entries that failed when the manifest was made have nothing to check
	want := make(map[string]string)
	var files []hashfile.File
	bad := 0
	for _, entry := range m.Entries {
		if entry.SHA256 == "" {
			continue
		}
		f, err := hashfile.OpenFile(entry.Name)
		if err != nil {
			logger.Debug("manifest entry unreadable", "file", entry.Name, "error", err)
			fmt.Fprintf(out, "MISSING  %s\n", entry.Name)
			bad++
			continue
		}
		want[entry.Name] = strings.ToLower(entry.SHA256)
		files = append(files, f)
	}

	if len(files) > 0 {
		h := hashfile.NewHasher(
			hashfile.WithHost(a.cfg.HashHost()),
			hashfile.WithLimits(a.cfg.HashLimits()),
			hashfile.WithLogger(logger),
		)
		err := h.On(hashfile.EventError, func(hashfile.Event) {})
		if err != nil {
			return err
		}
		batch, err := h.Start(files...)
		if err != nil {
			return err
		}

		for _, res := range batch.Results() {
			name := res.File.Name()
			switch {
			case res.State != hashfile.JobDone:
				fmt.Fprintf(out, "FAILED   %s: %v\n", name, res.Err)
				bad++
			case res.Digest != want[name]:
				fmt.Fprintf(out, "MISMATCH %s\n", name)
				bad++
			default:
				fmt.Fprintf(out, "OK       %s\n", name)
			}
		}
	}

	if bad > 0 {
		return errFailed
	}
	return nil
}
