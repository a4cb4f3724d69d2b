package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/app"
	"github.com/aussiebroadwan/bartab-connect/pkg/jwtx"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := mintToken(os.Args[2:]); err != nil {
			log.Fatalf("token: %v", err)
		}
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

// mintToken prints a bearer token signed with CONNECT_JWT_SECRET, for local
// development without the auth service.
func mintToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "user id to put in the subject claim")
	scopes := fs.String("scopes", "", "comma separated scopes, e.g. connections:token")
	ttl := fs.Duration("ttl", jwtx.DefaultAccessTokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sub == "" {
		return fmt.Errorf("-sub is required")
	}

	secret := os.Getenv("CONNECT_JWT_SECRET")
	signer, err := jwtx.NewSignerHS256([]byte(secret))
	if err != nil {
		return err
	}

	var scopeList []string
	if *scopes != "" {
		scopeList = strings.Split(*scopes, ",")
	}

	var aud []string
	if v := os.Getenv("CONNECT_JWT_AUDIENCE"); v != "" {
		aud = strings.Split(v, ",")
	}

	claims := jwtx.NewAccessClaims(*sub, scopeList, *ttl, os.Getenv("CONNECT_JWT_ISSUER"), aud, time.Now())
	tok, err := signer.Sign(claims)
	if err != nil {
		return err
	}

	fmt.Println(tok)
	return nil
}
