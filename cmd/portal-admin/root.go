package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/console"
	"github.com/noah-isme/bk-portal-api/pkg/apiclient"
	"github.com/noah-isme/bk-portal-api/pkg/config"
	"github.com/noah-isme/bk-portal-api/pkg/logger"
)

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newStreams() streams {
	return streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
}

// session is built once per invocation from flags and environment.
type session struct {
	streams
	client   *apiclient.Client
	logger   *zap.Logger
	renderer *console.Renderer
	notifier *termNotifier
	yes      bool
}

func (s *session) confirmer() console.Confirmer {
	return &promptConfirmer{in: bufio.NewReader(s.in), out: s.errOut, assumeYes: s.yes}
}

type rootOptions struct {
	apiURL  string
	token   string
	timeout time.Duration
	tz      string
	yes     bool
	verbose bool
}

func newRootCmd(st streams) *cobra.Command {
	opts := &rootOptions{}
	sess := &session{streams: st}

	cmd := &cobra.Command{
		Use:           "portal-admin",
		Short:         "Back-office console for the BK portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return sess.init(opts)
		},
	}
	cmd.SetIn(st.in)
	cmd.SetOut(st.out)
	cmd.SetErr(st.errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", "", "portal API base URL (default CONSOLE_API_URL)")
	flags.StringVar(&opts.token, "token", "", "bearer token (default CONSOLE_TOKEN)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "request timeout (default CONSOLE_TIMEOUT)")
	flags.StringVar(&opts.tz, "tz", "Asia/Jakarta", "time zone used for dates")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "answer yes to confirmation prompts")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log API calls")

	cmd.AddCommand(newAccountsCmd(sess))
	cmd.AddCommand(newKPIsCmd(sess))
	cmd.AddCommand(newContentCmd(sess))
	return cmd
}

func (s *session) init(opts *rootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("load config: %w", err))
	}
	if opts.apiURL != "" {
		cfg.Console.APIURL = opts.apiURL
	}
	if opts.token != "" {
		cfg.Console.Token = opts.token
	}
	if opts.timeout > 0 {
		cfg.Console.Timeout = opts.timeout
	}

	s.logger = zap.NewNop()
	if opts.verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
		if l, err := logger.New(cfg); err == nil {
			s.logger = l
		}
	}

	client, err := apiclient.New(cfg.Console.APIURL, cfg.Console.Token, cfg.Console.Timeout,
		apiclient.WithAPIPrefix(cfg.APIPrefix), apiclient.WithLogger(s.logger))
	if err != nil {
		return withCode(exitUsage, err)
	}

	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		loc = time.UTC
	}
	s.client = client
	s.renderer = console.NewRenderer(loc)
	s.notifier = &termNotifier{out: s.errOut}
	s.yes = opts.yes
	return nil
}

func execute(st streams) int {
	err := newRootCmd(st).Execute()
	if err != nil {
		fmt.Fprintln(st.errOut, err.Error())
	}
	return exitCode(err)
}
