package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/edgard/tgharvest/internal/config"
	"github.com/edgard/tgharvest/internal/export"
)

// runShow prints the header and the first rows of an exported CSV so a run
// can be spot-checked without a spreadsheet.
func runShow(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	file := fs.String("file", "", "CSV file to preview")
	limit := fs.Int("limit", 20, "number of rows to print")
	_ = fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("the -file flag is required")
	}

	dialect := export.Dialect{
		Encoding:  cfg.CSV.Encoding,
		Delimiter: cfg.CSV.Delimiter,
		CRLF:      cfg.CSV.CRLF,
	}
	r, closer, err := export.OpenReader(*file, dialect)
	if err != nil {
		return err
	}
	defer closer.Close()

	for i := 0; i <= *limit; i++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", *file, err)
		}
		fmt.Println(strings.Join(row, "\t"))
	}
	return nil
}
