package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-climb-client/authclient"
	"github.com/jrsteele09/go-climb-client/credentials"
	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
)

// defaultLoopbackOrigin hosts the callback server when no redirect URI is
// configured for a provider.
const defaultLoopbackOrigin = "http://127.0.0.1:9763"

const loginTimeout = 3 * time.Minute

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login [google|kakao]",
		Short: "Log in with email/password or a social provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				provider := credentials.Provider(args[0])
				if !provider.Known() || provider == credentials.ProviderEmail {
					return fmt.Errorf("unknown provider %q", args[0])
				}
				return socialLogin(cmd.Context(), a, provider)
			}

			if email == "" || password == "" {
				return errors.New("--email and --password are required for password login")
			}
			user, err := a.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", user.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				// Local credentials are gone either way.
				a.log.Warn().Err(err).Msg("server-side logout failed")
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.auth.Initialize(cmd.Context())
			if !res.Authenticated() {
				if res.State == authclient.StateFailed {
					return fmt.Errorf("session check failed: %w", res.Err)
				}
				if errors.Is(res.Err, apperrors.ErrSessionExpired) {
					fmt.Println("Session expired, please log in again.")
					return nil
				}
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("%s (%s) via %s\n", res.User.DisplayName(), res.User.Email, res.Provider)
			return nil
		},
	}
}

// socialLogin walks the authorization-code flow with a loopback callback
// server: print the consent URL, wait for the provider redirect, and hand
// the redirect URL to the orchestrator.
func socialLogin(ctx context.Context, a *app, provider credentials.Provider) error {
	origin, err := loopbackOrigin(a, provider)
	if err != nil {
		return err
	}

	authURL, _, err := a.auth.AuthorizeURL(provider, origin)
	if err != nil {
		return err
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid callback origin %q: %w", origin, err)
	}

	done := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		u := *r.URL
		u.Scheme = originURL.Scheme
		u.Host = r.Host

		handled, err := a.auth.HandleRedirect(r.Context(), &u)
		if !handled && err == nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err != nil {
			fmt.Fprintln(w, "<h3>Login failed. You can close this window and retry.</h3>")
		} else {
			fmt.Fprintln(w, "<h3>Logged in. You can close this window.</h3>")
		}
		done <- err
	})

	server := &http.Server{Addr: originURL.Host, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			done <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer shutdown(server)

	fmt.Println("Open this URL in your browser to continue:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-waitForStopSignal():
		return errors.New("login cancelled")
	case <-time.After(loginTimeout):
		return errors.New("timed out waiting for the provider redirect")
	case <-ctx.Done():
		return ctx.Err()
	}

	user := a.store.User()
	fmt.Printf("Logged in as %s\n", user.DisplayName())
	return nil
}

// loopbackOrigin picks the origin the callback server listens on: the
// configured redirect URI's origin, else the loopback default.
func loopbackOrigin(a *app, provider credentials.Provider) (string, error) {
	var configured string
	switch provider {
	case credentials.ProviderGoogle:
		configured = a.config.GetGoogleRedirectURI()
	case credentials.ProviderKakao:
		configured = a.config.GetKakaoRedirectURI()
	}
	if configured == "" {
		return defaultLoopbackOrigin, nil
	}
	u, err := url.Parse(configured)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid redirect URI %q for %s", configured, provider)
	}
	return u.Scheme + "://" + u.Host, nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
