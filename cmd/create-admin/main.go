package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"taskdesk-api/internal/auth"
	"taskdesk-api/internal/bootstrap"
	"taskdesk-api/internal/config"
	"taskdesk-api/internal/denylist"
	"taskdesk-api/internal/logging"
	"taskdesk-api/internal/service"

	"github.com/alecthomas/kingpin/v2"
)

var (
	app = kingpin.New("create-admin", "Create an admin account, or promote an existing user to admin")

	email    = app.Flag("email", "Admin email address").Required().String()
	name     = app.Flag("name", "Display name, used when the account is created").Default("Administrator").String()
	password = app.Flag("password", "Password, used when the account is created").Envar("TASKDESK_ADMIN_PASSWORD").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewLogger(os.Stderr, env.Env, env.SlogLevel()))

	if err := run(env); err != nil {
		fmt.Fprintf(os.Stderr, "create-admin: %v\n", err)
		os.Exit(1)
	}
}

func run(env *config.Env) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, env)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close(ctx) }()

	issuer := auth.NewIssuer(env.JWTSecret, env.JWTIssuer, env.JWTAudience, env.JWTTTL)
	users := service.NewUserService(stores.Users, issuer, denylist.New())

	u, created, err := users.EnsureAdmin(ctx, service.RegisterInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Created admin %s (%s)\n", u.Email, u.ID)
	} else {
		fmt.Printf("%s (%s) is an admin\n", u.Email, u.ID)
	}
	return nil
}
