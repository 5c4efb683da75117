package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"arq/internal/auth/models"
	"arq/internal/auth/session"
	"arq/pkg/secrets"
)

type mintedSession struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	Cookie    string    `json:"cookie"`
}

func newMintSessionCmd() *cobra.Command {
	var (
		username string
		secret   string
		ttl      time.Duration
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "mint-session",
		Short: "Mint an admin session token for local debugging",
		Long: `Signs an admin session token with an explicit secret. The secret comes
from --secret or ADMIN_SESSION_SECRET; there is no default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("ADMIN_SESSION_SECRET")
			}
			if secret == "" {
				return errors.New("a signing secret is required (--secret or ADMIN_SESSION_SECRET)")
			}
			if len(secret) < secrets.MinSigningSecretBytes {
				return fmt.Errorf("signing secret must be at least %d bytes", secrets.MinSigningSecretBytes)
			}

			authority, err := session.New([]byte(secret), session.WithTTL(ttl))
			if err != nil {
				return err
			}
			token, err := authority.CreateSession(username)
			if err != nil {
				return err
			}
			claims := authority.VerifySession(token)
			if claims == nil {
				return errors.New("minted token failed verification")
			}

			out := mintedSession{
				Token:     token,
				Username:  claims.Username,
				ExpiresAt: claims.ExpiresAt,
				Cookie:    models.SessionCookieName + "=" + token,
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret; defaults to ADMIN_SESSION_SECRET")
	cmd.Flags().DurationVar(&ttl, "ttl", models.SessionTTL, "token lifetime")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print token details as JSON")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
