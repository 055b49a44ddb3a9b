package delivery

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// India has roughly 19k pincodes.
const expectedPincodes = 20_000

type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a loader for gzipped pincode lists on the local file system.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "pincode-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) (Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pincode file %s: %w", path, err)
	}
	defer file.Close()

	set, err := readSet(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read pincode file %s: %w", path, err)
	}

	l.logger.Info().Str("file", path).Int("pincodes_loaded", set.Size()).Msg("pincode file loaded")
	return set, nil
}

// readSet parses a gzipped stream with one pincode per line. Blank lines and lines starting
// with # are skipped; anything after the first comma is ignored so CSV exports load as-is.
func readSet(ctx context.Context, r io.Reader) (*mapSet, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	set := newMapSet(expectedPincodes)
	scanner := bufio.NewScanner(gz)

	for n := 0; scanner.Scan(); n++ {
		if n%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if validPincode(line) {
			set.add(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func validPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
