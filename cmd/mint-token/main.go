package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/eldtechnologies/omnidesk/internal/config"
	"github.com/eldtechnologies/omnidesk/internal/crypto"
	"github.com/eldtechnologies/omnidesk/internal/store"
)

// mint-token issues a bearer token for an existing operator without a
// password, for scripted smoke tests. It only makes sense against
// persistent stores (DATABASE_URL or SQLITE_PATH, and REDIS_URL).
func main() {
	email := flag.String("email", store.SeedAdminEmail, "Operator email")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("config: %v", err)
	}
	if cfg.RedisURL == "" {
		fail("REDIS_URL is required; in-memory tokens would not reach the server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ds, _, err := store.OpenDataStore(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		fail("%v", err)
	}
	defer ds.Close()

	user, err := ds.GetUserByEmail(ctx, *email)
	if err != nil {
		fail("lookup user: %v", err)
	}
	if user == nil {
		fail("no operator with email %s", *email)
	}

	tokens, _, err := store.OpenTokenStore(ctx, cfg.RedisURL)
	if err != nil {
		fail("%v", err)
	}

	token, err := crypto.NewToken()
	if err != nil {
		fail("generate token: %v", err)
	}
	if err := tokens.SaveToken(ctx, token, user.ID, *ttl); err != nil {
		fail("save token: %v", err)
	}

	fmt.Println(token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
