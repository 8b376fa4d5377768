package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/config"
)

func TestTokenCmd(t *testing.T) {
	cfg = config.Default()
	cfg.Auth.Secret = "cli-secret"
	log = zap.NewNop()
	t.Cleanup(func() { cfg, log = nil, nil })

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, tokenCmd.RunE(cmd, []string{"Admin@Example.com"}))

	claims, err := auth.NewIssuer("cli-secret", time.Hour).Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestTokenCmdNeedsSecret(t *testing.T) {
	cfg = config.Default()
	t.Cleanup(func() { cfg = nil })

	err := tokenCmd.RunE(&cobra.Command{}, []string{"a@b.c"})
	assert.ErrorContains(t, err, "ACCESS_TOKEN")
}

func TestNewDependencies(t *testing.T) {
	// Connect does not dial until the first operation.
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	db := client.Database("test")

	c := config.Default()
	c.Auth.Secret = "s"
	c.Cache.TTL = 0
	deps := newDependencies(c, db, zap.NewNop())
	assert.Nil(t, deps.Cache)
	assert.Nil(t, deps.Mailer)
	assert.True(t, deps.VerifyPrices)
	assert.NotNil(t, deps.Users)
	assert.NotNil(t, deps.Stats)

	c.Cache.TTL = time.Minute
	c.Mail.User, c.Mail.Password = "shop@example.com", "pw"
	deps = newDependencies(c, db, zap.NewNop())
	require.NotNil(t, deps.Cache)
	deps.Cache.Stop()
	assert.NotNil(t, deps.Mailer)
}
