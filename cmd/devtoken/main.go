package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/plazagoods/storefront-backend/pkg/auth"
	"github.com/plazagoods/storefront-backend/pkg/auth/session"
	"github.com/plazagoods/storefront-backend/pkg/config"
	"github.com/plazagoods/storefront-backend/pkg/logger"
	"github.com/plazagoods/storefront-backend/pkg/redis"
)

// devtoken mints an access/refresh pair for a user id so the cart API can be
// exercised locally without a login flow. Refuses to run against prod.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "devtoken"})

	_ = godotenv.Load()

	user := flag.String("user", "", "user id (uuid) to mint the token for")
	email := flag.String("email", "", "email claim to embed (optional)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens against a prod environment")
		os.Exit(1)
	}

	if *user == "" {
		*user = uuid.NewString()
		fmt.Println("no -user given, generated:", *user)
	}
	userID, err := uuid.Parse(*user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -user value %q: %v\n", *user, err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	manager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	accessID := session.NewAccessID()
	accessToken, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		Email:  *email,
		JTI:    accessID,
	})
	requireResource(ctx, logg, "access token", err)

	refreshToken, err := manager.Generate(ctx, accessID)
	requireResource(ctx, logg, "refresh session", err)

	fmt.Println("access token: ", accessToken)
	fmt.Println("refresh token:", refreshToken)
	fmt.Println("access id:    ", accessID)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
