package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-climb-client/authclient"
	"github.com/jrsteele09/go-climb-client/board"
	"github.com/jrsteele09/go-climb-client/credentials"
	"github.com/jrsteele09/go-climb-client/gyms"
	"github.com/jrsteele09/go-climb-client/httpclient"
	"github.com/jrsteele09/go-climb-client/internal/config"
	"github.com/jrsteele09/go-climb-client/providers"
)

// app bundles the wired-up SDK for the commands.
type app struct {
	config config.Config
	store  *credentials.FileStore
	client *httpclient.Client
	auth   *authclient.Service
	gyms   *gyms.Service
	board  *board.Service
	log    zerolog.Logger
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var a app

	root := &cobra.Command{
		Use:           "climb",
		Short:         "Client for the ClimbUp gym discovery and community service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := buildApp(verbose)
			if err != nil {
				return err
			}
			a = *built
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(a.config.GetAppName())
			return cmd.Help()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(&a),
		newLogoutCmd(&a),
		newWhoamiCmd(&a),
		newGymsCmd(&a),
		newBoardCmd(&a),
	)
	return root
}

func buildApp(verbose bool) (*app, error) {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.WarnLevel)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	credPath, err := credentials.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolving credentials path: %w", err)
	}
	store := credentials.NewFileStore(credPath, credentials.WithLogger(log))

	client, err := httpclient.New(
		cfg.GetAPIBaseURL(),
		store,
		httpclient.WithTimeout(cfg.GetHTTPTimeout()),
		httpclient.WithLogger(log),
		httpclient.WithOnSessionInvalidated(func() {
			fmt.Fprintln(os.Stderr, "Session expired, please log in again.")
		}),
	)
	if err != nil {
		return nil, err
	}

	registry := providers.NewRegistry(cfg)
	callbacks := authclient.Callbacks{
		OnExchangeStarted: func(p credentials.Provider) {
			fmt.Fprintf(os.Stderr, "Exchanging %s authorization code...\n", p)
		},
		OnLoginRequired: func(p credentials.Provider, err error, _ *url.URL) {
			fmt.Fprintf(os.Stderr, "%s login failed: %v\n", p, err)
		},
	}
	authService, err := authclient.NewService(client, registry, cfg,
		authclient.WithLogger(log),
		authclient.WithCallbacks(callbacks),
	)
	if err != nil {
		return nil, err
	}
	gymService, err := gyms.NewService(client)
	if err != nil {
		return nil, err
	}
	boardService, err := board.NewService(client)
	if err != nil {
		return nil, err
	}

	return &app{
		config: cfg,
		store:  store,
		client: client,
		auth:   authService,
		gyms:   gymService,
		board:  boardService,
		log:    log,
	}, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
