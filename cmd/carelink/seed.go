package main

import (
	"context"
	"fmt"

	"carelink/internal/db"
	"carelink/internal/seed"
	"carelink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Sync the donation category taxonomy into the database",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
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

		result, err := seed.SeedCategories(ctx, store.NewCategoryRepository(pool))
		if err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"created": result.Created,
			"updated": result.Updated,
		}).Info("Categories seeded successfully")

		return nil
	},
}
