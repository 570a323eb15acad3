package cli

import (
	"context"
	"encoding/json"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/spf13/cobra"

	"github.com/tilvane/accountd/internal/infrastructure/audit"
)

func init() {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the token signing key",
	}

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the signing key pair if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			km, _, err := newKeyManager()
			if err != nil {
				return err
			}
			_, kid, err := km.Signer(context.Background())
			if err != nil {
				return fmt.Errorf("provision signing key: %w", err)
			}
			fmt.Printf("signing key ready, kid: %s\n", kid)
			return nil
		},
	}

	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Replace the signing key pair with a fresh one",
		Long: `Rotation invalidates every previously issued access token still in
flight. Verifiers pick up the new key when their cached JWKS expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			km, cfg, err := newKeyManager()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pub, err := km.Rotate(ctx)
			if err != nil {
				return fmt.Errorf("rotate signing key: %w", err)
			}

			auditor := newAuditPublisher(cfg)
			defer auditor.Close()
			if err := auditor.Publish(ctx, audit.Event{Type: audit.EventKeyRotated, Success: true}); err != nil {
				fmt.Printf("warning: audit publish failed: %v\n", err)
			}

			fmt.Printf("rotated signing key, new kid: %s\n", pub.KeyID)
			return nil
		},
	}

	jwksCmd := &cobra.Command{
		Use:   "jwks",
		Short: "Print the public key set as a JWKS document",
		RunE: func(cmd *cobra.Command, args []string) error {
			km, _, err := newKeyManager()
			if err != nil {
				return err
			}
			set, err := km.KeySet(context.Background())
			if err != nil {
				return err
			}
			return printJSON(set)
		},
	}

	keyCmd.AddCommand(provisionCmd, rotateCmd, jwksCmd)
	rootCmd.AddCommand(keyCmd)
}

func printJSON(set *jose.JSONWebKeySet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
