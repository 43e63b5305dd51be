package cmd

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/solatis/flowkeeper/internal/core/auth"
	"github.com/solatis/flowkeeper/internal/core/config"
	"github.com/solatis/flowkeeper/internal/types"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage modification tokens (confModAuthToken)",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Issue a new token; it is printed once and never stored",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyCreate,
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke ID",
	Short: "Revoke a token by its ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued tokens",
	RunE:  runAPIKeyList,
}

var apikeySecretCmd = &cobra.Command{
	Use:   "new-secret",
	Short: "Print a fresh value for FK_HMAC_SECRET",
	RunE:  runAPIKeySecret,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyRevokeCmd, apikeyListCmd, apikeySecretCmd)
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("name cannot be blank")
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}

	database, queries, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	token, id, err := auth.IssueAPIKey(context.Background(), queries, secrets, name)
	if err != nil {
		return fmt.Errorf("failed to issue api key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "id:    %s\ntoken: %s\n", id, token)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	id, err := types.ParseAPIKeyID(args[0])
	if err != nil {
		return err
	}

	database, queries, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := queries.RevokeAPIKey(context.Background(), id); err != nil {
		return fmt.Errorf("failed to revoke %s: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", id)
	return nil
}

func runAPIKeyList(cmd *cobra.Command, args []string) error {
	database, queries, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	keys, err := queries.ListAPIKeys(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tLAST USED\tREVOKED")
	for _, k := range keys {
		lastUsed, revoked := "-", "-"
		if k.LastUsedAt.Valid {
			lastUsed = k.LastUsedAt.Time.Format("2006-01-02 15:04:05")
		}
		if k.RevokedAt.Valid {
			revoked = k.RevokedAt.Time.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.Name, k.CreatedAt.Format("2006-01-02 15:04:05"), lastUsed, revoked)
	}
	return w.Flush()
}

// runAPIKeySecret prints <uuidv7 hex>:<base64 of 32 random bytes>.
func runAPIKeySecret(cmd *cobra.Command, args []string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", strings.ReplaceAll(id.String(), "-", ""), base64.StdEncoding.EncodeToString(secret))
	return nil
}
