package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/whtech/woleet-weblibs/internal/config"
	"github.com/whtech/woleet-weblibs/internal/logging"
	"github.com/whtech/woleet-weblibs/internal/woleet"
)

// Version is overridden at build time with
// -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

// errFailed marks a run that completed but had per-file failures. It has
// already been reported, so run only turns it into the exit status.
var errFailed = errors.New("some files failed")

type globalFlags struct {
	cfgFile string
	debug   bool
	quiet   bool
	json    bool
}

// app holds what the subcommands share once the root has loaded the config.
type app struct {
	flags globalFlags

	cfg *config.Config

	// s3Client builds the manifest upload client for an AWS profile.
	s3Client func(ctx context.Context, profile string) (*s3.Client, error)
}

func newApp() *app {
	return &app{s3Client: loadS3Client}
}

func loadS3Client(ctx context.Context, profile string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithSharedConfigProfile(profile))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.cfgFile)
	if err != nil {
		return err
	}
	if a.flags.debug {
		cfg.Log.Level = "debug"
	}
	if a.flags.json {
		cfg.Log.JSON = true
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg

	var logger *slog.Logger
	if a.flags.quiet {
		logger = logging.NewNopLogger()
	} else {
		logger = logging.NewLogger(logging.LoggerConfig{
			Version: Version,
			Out:     cmd.ErrOrStderr(),
			Level:   level,
			JSON:    cfg.Log.JSON,
		})
	}
	cmd.SetContext(logging.ContextWithLogger(cmd.Context(), logger))
	return nil
}

func (a *app) client() *woleet.Client {
	return woleet.NewClient(
		woleet.WithBaseURL(a.cfg.API.BaseURL),
		woleet.WithToken(a.cfg.API.Token),
		woleet.WithHTTPClient(&http.Client{Timeout: a.cfg.API.Timeout}),
		woleet.WithProvider(woleet.Provider(a.cfg.API.Provider)),
	)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "woleet-hash",
		Short: "woleet-hash computes SHA-256 digests of files and looks them up",
		Long: `woleet-hash hashes files with the fastest strategy the runtime offers
and queries the Woleet API for the anchors, receipts and transactions
attached to a digest.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.cfgFile, "config", "", "config file (yaml)")
	root.PersistentFlags().BoolVarP(&a.flags.debug, "debug", "d", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&a.flags.quiet, "quiet", "q", false, "disable logging")
	root.PersistentFlags().BoolVar(&a.flags.json, "json", false, "json logs and lookup output")

	root.AddCommand(
		newHashCmd(a),
		newVerifyCmd(a),
		newResolveCmd(a),
		newTxCmd(a),
		newReceiptCmd(a),
		newAnchorsCmd(a),
		newVersionCmd(),
	)
	return root
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmd := newRootCmd(newApp())
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 130
	default:
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
}
