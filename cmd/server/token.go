package main

import (
	"fmt"

	"github.com/spf13/cobra"

	jwttoken "treasury/internal/jwt_token"
	"treasury/internal/platform/config"
	id "treasury/pkg/domain"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringP("account", "a", "", "Account address the token identifies")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to TREASURY_TOKEN_TTL)")
	_ = tokenCmd.MarkFlagRequired("account")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a caller token for development and scripting",
	Long: `Issue a signed caller token using the configured signing key. The token's
subject is the account every API call made with it acts as.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetString("account")
	account, err := id.ParseAddress(raw)
	if err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	token, err := jwt.GenerateCallerToken(account, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
