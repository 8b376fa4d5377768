package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/database"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes the API relies on",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Mongo.URI == "" {
			return errors.New("mongo uri is not set (MONGO_URI or DB_USER/DB_PASS)")
		}

		client, err := database.Connect(cmd.Context(), cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())

		created, err := database.EnsureIndexes(cmd.Context(), client.Database(cfg.Mongo.Database))
		for _, name := range created {
			log.Info("index ready", zap.String("index", name))
		}
		return err
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [email]",
	Short: "Print a bearer token for an email",
	Long: `Signs a bearer token the same way POST /jwt does. Useful for calling
admin endpoints from scripts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.Secret == "" {
			return errors.New("token secret is not set (ACCESS_TOKEN)")
		}
		token, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL).Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
