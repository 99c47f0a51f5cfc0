package main

import (
	"context"
	"fmt"

	"tameer/internal/db"
	"tameer/internal/seed"
	"tameer/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with the console administrator",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "email",
			Usage: "Admin email",
			Value: "admin@company.com",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Admin display name",
			Value: "Super Admin",
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "Admin password",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		userRepo := store.NewUserRepository(pool)

		logrus.Info("Seeding admin user...")
		user, err := seed.SeedAdmin(ctx, userRepo, c.String("email"), c.String("name"), c.String("password"))
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
		}).Info("Admin seeded successfully")

		return nil
	},
}
