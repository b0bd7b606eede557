package main

import (
	"fmt"

	"carelink/internal/utils"

	"github.com/urfave/cli/v2"
)

var nanoidCommand = &cli.Command{
	Name:  "nanoid",
	Usage: "Print row ids for hand-written category, item or schedule inserts",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of IDs to generate",
			Value:   1,
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "ID length, row ids use the default",
			Value: utils.RowIDSize,
		},
	},
	Action: func(c *cli.Context) error {
		if c.Int("count") < 1 {
			return fmt.Errorf("count must be at least 1")
		}
		for range c.Int("count") {
			fmt.Println(utils.NanoIDSize(c.Int("size")))
		}
		return nil
	},
}
