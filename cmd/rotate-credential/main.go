package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pulseboard/eventpipe/config"
	"github.com/pulseboard/eventpipe/event/credential"
	eventredis "github.com/pulseboard/eventpipe/event/redis"
)

/* rotate-credential - provisions or rotates the webhook credential for a
 * source. The plaintext token is printed exactly once; only its hash is
 * stored. Any prior credential for the source is revoked atomically.
 * Usage: go run cmd/rotate-credential/main.go <source_id> <project_id>
 */

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: rotate-credential <source_id> <project_id>")
		os.Exit(1)
	}
	sourceID, projectID := os.Args[1], os.Args[2]

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	ctx := context.Background()

	repo, err := eventredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MaxAttempts, cfg.AckedTTL())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer repo.Close(ctx)

	token, err := newToken()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := repo.Rotate(ctx, sourceID, projectID, credential.HashToken(token)); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("Credential rotated for source %s (project %s)\n", sourceID, projectID)
	fmt.Printf("Token (shown once, store it now): %s\n", token)
}

// newToken generates a 256-bit random bearer token
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return "whtok_" + hex.EncodeToString(buf), nil
}
