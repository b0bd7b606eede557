package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"carelink/internal/extract"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var extractCommand = &cli.Command{
	Name:      "extract",
	Usage:     "Print the requirement candidates found in a PDF or text file",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "text",
			Usage: "Also print the text recovered from the file",
		},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return fmt.Errorf("a file to extract from is required")
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		text := string(data)
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			text, err = extract.PDFText(data)
			if err != nil {
				return err
			}
		}

		if c.Bool("text") {
			fmt.Println(text)
		}

		candidates := extract.Extract(text)
		pp.Println(candidates)
		fmt.Printf("%d candidates\n", len(candidates))

		return nil
	},
}
