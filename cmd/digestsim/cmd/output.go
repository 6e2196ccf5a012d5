package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ChrisMcGann/DigestSim/pkg/digest"
	"github.com/ChrisMcGann/DigestSim/pkg/features"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/match"
	"github.com/ChrisMcGann/DigestSim/pkg/writer/sqlite"
	"github.com/ChrisMcGann/DigestSim/pkg/writer/tsv"
)

// resultWriter is implemented by the sqlite and tsv writers
type resultWriter interface {
	WriteProtein(name, description, sequence string) (int64, error)
	WriteFragments(proteinID int64, frags []digest.Fragment) error
	WriteMatches(matches []features.Match) error
	WriteBins(bins []match.MassBin) error
	Finalize() error
	Discard() error
}

// openOutput creates the writer selected by format. TSV output without a
// path goes to stdout.
func openOutput(format, path string, stdout io.Writer, info sqlite.RunInfo) (resultWriter, error) {
	switch strings.ToLower(format) {
	case "sqlite", "db":
		if path == "" {
			return nil, fmt.Errorf("sqlite output needs --out")
		}
		return sqlite.NewWriter(path, info, sqlite.WithLogger(logger.Default()))

	case "tsv", "txt", "text":
		if path == "" {
			// Hide any Close method so stdout stays open
			return tsv.NewWriter(struct{ io.Writer }{stdout}), nil
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		return tsv.NewWriter(f), nil
	}
	return nil, fmt.Errorf("invalid output format '%s', must be sqlite or tsv", format)
}
