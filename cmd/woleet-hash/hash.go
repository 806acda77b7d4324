package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/whtech/woleet-weblibs/internal/hashfile"
	"github.com/whtech/woleet-weblibs/internal/logging"
	"github.com/whtech/woleet-weblibs/internal/manifest"
)

type hashFlags struct {
	ignoreDot   bool
	maxFiles    int
	progress    bool
	verbose     bool
	manifest    string
	s3URL       string
	s3Profile   string
	rredundancy bool
}

func newHashCmd(a *app) *cobra.Command {
	var f hashFlags

	cmd := &cobra.Command{
		Use:   "hash [flags] <path>...",
		Short: "Print the SHA-256 digest of files and directory trees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("manifest") {
				f.manifest = a.cfg.Manifest.Path
			}
			if !cmd.Flags().Changed("s3") {
				f.s3URL = a.cfg.Manifest.S3URL
			}
			if !cmd.Flags().Changed("profile") {
				f.s3Profile = a.cfg.Manifest.S3Profile
			}
			return a.hash(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, f)
		},
	}

	cmd.Flags().BoolVar(&f.ignoreDot, "ignore-dot", false, "ignore dot-files and dot-directories")
	cmd.Flags().IntVarP(&f.maxFiles, "max-files", "n", -1, "max number of files to hash")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "print progress to stderr")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "list every file in the summary")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "write a digest manifest to this file or directory")
	cmd.Flags().StringVar(&f.s3URL, "s3", "", "upload the digest manifest to s3://bucket[/key/prefix/]")
	cmd.Flags().StringVarP(&f.s3Profile, "profile", "p", "default", "aws s3 credentials profile")
	cmd.Flags().BoolVarP(&f.rredundancy, "reduced-redundancy", "r", false, "use reduced redundancy storage class")

	return cmd
}

func (a *app) hash(ctx context.Context, out, errOut io.Writer, paths []string, f hashFlags) error {
	// check the upload target first so a bad url fails before any hashing
	var s3Sink *manifest.S3Sink
	if f.s3URL != "" {
		client, err := a.s3Client(ctx, f.s3Profile)
		if err != nil {
			return err
		}
		s3Sink, err = manifest.NewS3Sink(ctx, client, f.s3URL, f.rredundancy)
		if err != nil {
			return err
		}
	}

	logger := logging.FromContext(ctx)

	files, err := scan(logger, paths, f)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files to hash")
	}

	h := hashfile.NewHasher(
		hashfile.WithHost(a.cfg.HashHost()),
		hashfile.WithLimits(a.cfg.HashLimits()),
		hashfile.WithLogger(logger),
	)
	if err := register(h, out, errOut, f.progress); err != nil {
		return err
	}

	batch, err := h.Start(files...)
	if err != nil {
		return err
	}

	srizer := hashfile.NewSummarizer(errOut, f.verbose)
	srizer.Run(batch)
	srizer.Report()

	if f.manifest != "" || s3Sink != nil {
		now := time.Now()
		m := manifest.FromResults(batch.Results(), now)
		name := fmt.Sprintf("hashes-%s.yaml", now.UTC().Format("20060102T150405Z"))

		if f.manifest != "" {
			if err := writeManifest(ctx, errOut, &manifest.FileSink{Path: f.manifest}, name, m); err != nil {
				return err
			}
		}
		if s3Sink != nil {
			if err := writeManifest(ctx, errOut, s3Sink, name, m); err != nil {
				return err
			}
		}
	}

	if srizer.ExitStatus() != 0 {
		return errFailed
	}
	return nil
}

// scan expands paths into files. maxFiles bounds the total across paths.
func scan(logger *slog.Logger, paths []string, f hashFlags) ([]hashfile.File, error) {
	var files []hashfile.File
	for _, path := range paths {
		limit := -1
		if f.maxFiles >= 0 {
			limit = f.maxFiles - len(files)
			if limit <= 0 {
				break
			}
		}
		found, err := hashfile.Scan(path, f.ignoreDot, limit, logger)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func register(h *hashfile.Hasher, out, errOut io.Writer, progress bool) error {
	err := h.On(hashfile.EventResult, func(e hashfile.Event) {
		fmt.Fprintf(out, "%s  %s\n", e.Digest, e.File.Name())
	})
	if err != nil {
		return err
	}
	err = h.On(hashfile.EventError, func(e hashfile.Event) {
		fmt.Fprintf(errOut, "error: %v\n", e.Err)
	})
	if err != nil {
		return err
	}
	if !progress {
		return nil
	}
	return h.On(hashfile.EventProgress, func(e hashfile.Event) {
		fmt.Fprintf(errOut, "%5.1f%% %s\n", e.Progress*100, e.File.Name())
	})
}

func writeManifest(ctx context.Context, errOut io.Writer, sink manifest.Sink, name string, m *manifest.Manifest) error {
	where, err := manifest.Write(ctx, sink, name, m)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	logging.FromContext(ctx).Info("manifest written", "to", where, "entries", len(m.Entries))
	fmt.Fprintf(errOut, "manifest: %s\n", where)
	return nil
}
