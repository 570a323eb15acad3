// Package cli implements the accountd-admin command tree.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilvane/accountd/internal/config"
	"github.com/tilvane/accountd/internal/infrastructure/audit"
	"github.com/tilvane/accountd/internal/infrastructure/crypto"
	"github.com/tilvane/accountd/internal/infrastructure/secrets"
	"github.com/tilvane/accountd/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "accountd-admin",
	Short: "Admin CLI for the accountd service",
	Long: `accountd-admin performs administrative tasks against the account
service's backing stores, such as provisioning and rotating the token
signing key.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newKeyManager builds a key manager against the configured secret store.
func newKeyManager() (*crypto.KeyManager, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	appLogger, err := logger.NewZap(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	var store secrets.Store
	switch cfg.Secrets.Driver {
	case "vault":
		store, err = secrets.NewVaultStore(cfg.Vault, nil, appLogger)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("secret driver %q cannot be administered remotely", cfg.Secrets.Driver)
	}
	return crypto.NewKeyManager(store, appLogger), cfg, nil
}

// newAuditPublisher builds the audit publisher for CLI actions worth an
// audit trail, falling back to a no-op when Kafka is disabled.
func newAuditPublisher(cfg *config.Config) audit.Publisher {
	if !cfg.Kafka.Enabled {
		return audit.NewNopPublisher()
	}
	return audit.NewKafkaPublisher(cfg.Kafka, logger.NewNop())
}
