package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	gdata "github.com/godata-project/godata"
	"github.com/godata-project/godata/auth"
	"github.com/godata-project/godata/calendar"
	"github.com/godata-project/godata/documents"
	"github.com/godata-project/godata/tokenstore"
	"github.com/godata-project/godata/youtube"
)

// tokenKey is the tokenstore key the CLI stores its single token under.
const tokenKey = "godata"

// allDomains is everything the CLI's token should cover.
var allDomains = []gdata.AuthorizationDomain{
	calendar.Domain,
	youtube.Domain,
	documents.Domain,
	documents.SpreadsheetDomain,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize the application and persist a token",
	Long: `Run the OAuth authorization flow in the browser and persist the
resulting token in ~/.godata/data/tokens.db. Later commands reuse it
without further interaction.

The configuration file must carry the OAuth client credentials
(client_id and, for installed applications, client_secret).`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the persisted token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := tokenstore.Open("")
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(tokenKey)
	},
}

var clientLoginCmd = &cobra.Command{
	Use:   "clientlogin",
	Short: "Authenticate with the legacy ClientLogin protocol",
	Long: `Authenticate with a username and password against the legacy
ClientLogin endpoints. ClientLogin tokens cannot be persisted; this is
only useful to verify that an account still works against the old
endpoints.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		username, password, err := promptCredentials(cmd.Context())
		if err != nil {
			return err
		}
		authorizer := auth.NewClientLoginAuthorizer("godataProject-godata-1.0", allDomains...)
		if err := authorizer.Authenticate(cmd.Context(), username, password); err != nil {
			return err
		}
		fmt.Println("Authenticated.")
		return nil
	},
}

func init() {
	loginCmd.AddCommand(clientLoginCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if cfg.ClientID == "" {
		return errors.New("no client_id in the configuration file; create one in the Google API console first")
	}

	state := uuid.NewString()
	server := newCallbackServer(state)
	if err := server.start(); err != nil {
		return err
	}
	defer server.stop()

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = server.redirectURI()
	}
	authorizer := auth.NewOAuth2Authorizer(cfg.ClientID, cfg.ClientSecret, redirectURI, allDomains...)

	fmt.Println("Open this URL in your browser and approve the application:")
	fmt.Println()
	fmt.Println("  " + authorizer.BuildAuthenticationURI(state))
	fmt.Println()

	code, err := server.waitForCode(5 * time.Minute)
	if err != nil {
		return err
	}
	if err := authorizer.RequestAuthorization(cmd.Context(), code); err != nil {
		return err
	}

	store, err := tokenstore.Open("")
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(tokenKey, authorizer.Token()); err != nil {
		return err
	}
	fmt.Println("Authorized. Token stored.")
	return nil
}

// newAuthorizer builds an authorizer from the persisted token. Commands
// that need credentials call it; commands on public feeds pass the nil it
// returns when no token is stored.
func newAuthorizer() (gdata.Authorizer, error) {
	store, err := tokenstore.Open("")
	if err != nil {
		return nil, err
	}
	defer store.Close()

	token, err := store.Load(tokenKey)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost/callback"
	}
	authorizer := auth.NewOAuth2Authorizer(cfg.ClientID, cfg.ClientSecret, redirectURI, allDomains...)
	authorizer.SetToken(token)
	return authorizer, nil
}

// requireAuthorizer is newAuthorizer for commands that cannot run
// anonymously.
func requireAuthorizer() (gdata.Authorizer, error) {
	authorizer, err := newAuthorizer()
	if err != nil {
		return nil, err
	}
	if authorizer == nil {
		return nil, errors.New(`not authorized; run "godata login" first`)
	}
	return authorizer, nil
}

// promptCredentials reads a username and password from the terminal, the
// password with echo disabled.
func promptCredentials(ctx context.Context) (string, string, error) {
	_ = ctx
	fmt.Print("E-mail: ")
	var username string
	if _, err := fmt.Scanln(&username); err != nil {
		return "", "", fmt.Errorf("reading username: %w", err)
	}
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(username), string(password), nil
}
