package main

import (
	"context"
	"fmt"

	"carelink/internal/db"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:      "migrate",
	Usage:     "Run schema migrations (up, down, status, redo, version, up-to VERSION)",
	ArgsUsage: "[command] [args...]",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		command := "up"
		args := c.Args().Slice()
		if len(args) > 0 {
			command, args = args[0], args[1:]
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool, cfg.DatabaseSchema, command, args...); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"command": command,
			"schema":  cfg.DatabaseSchema,
		}).Info("migration finished")

		return nil
	},
}
