package cli

import (
	"errors"
	"fmt"
	"time"

	"pai-assistant-go/pkg/token"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the ingestion routes",
		RunE:  runToken,
	}
	cmd.Flags().StringP("email", "e", "", "Email claim (required)")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	cmd.MarkFlagRequired("email")

	RootCmd.AddCommand(cmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Admin.JWTSecret == "" {
		return errors.New("admin.jwt_secret is not configured")
	}
	tok, err := token.NewJWTManager(cfg.Admin.JWTSecret).GenerateToken(email, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
