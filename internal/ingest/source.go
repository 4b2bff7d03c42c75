package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
)

// ErrPeriodNotFound is returned when no dataset file exists for a period.
var ErrPeriodNotFound = errors.New("ingest: period not found")

var periodPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,31}$`)

var datasetExtensions = []string{".json", ".yaml", ".yml"}

// ValidPeriod reports whether label can name a dataset, e.g. 2024-12 or q4-2024.
func ValidPeriod(label string) bool {
	return periodPattern.MatchString(label)
}

// FileSource serves datasets stored as <dir>/<period>.json|yaml|yml.
type FileSource struct {
	dir string
}

// NewFileSource constructs a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Dir returns the root directory.
func (s *FileSource) Dir() string {
	return s.dir
}

// Load reads and validates the dataset for period. The file name is
// authoritative for the period label.
func (s *FileSource) Load(ctx context.Context, period string) (analytics.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return analytics.Dataset{}, err
	}
	path, _, err := s.locate(period)
	if err != nil {
		return analytics.Dataset{}, err
	}
	dataset, err := LoadFile(path)
	if err != nil {
		return analytics.Dataset{}, fmt.Errorf("load %s: %w", period, err)
	}
	dataset.Period = period
	return dataset, nil
}

// Periods lists every period with a dataset file, sorted ascending.
func (s *FileSource) Periods(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	seen := make(map[string]struct{}, len(entries))
	periods := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !isDatasetExt(ext) {
			continue
		}
		period := strings.TrimSuffix(name, filepath.Ext(name))
		if !ValidPeriod(period) {
			continue
		}
		if _, dup := seen[period]; dup {
			continue
		}
		seen[period] = struct{}{}
		periods = append(periods, period)
	}
	sort.Strings(periods)
	return periods, nil
}

// Fingerprint returns a token derived from the dataset file size and
// modification time.
func (s *FileSource) Fingerprint(ctx context.Context, period string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, info, err := s.locate(period)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(info.Size(), 36) + "-" + strconv.FormatInt(info.ModTime().UnixNano(), 36), nil
}

func (s *FileSource) locate(period string) (string, fs.FileInfo, error) {
	if !ValidPeriod(period) {
		return "", nil, fmt.Errorf("%w: %q", ErrPeriodNotFound, period)
	}
	for _, ext := range datasetExtensions {
		path := filepath.Join(s.dir, period+ext)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, info, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", nil, err
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrPeriodNotFound, period)
}

// LoadFile decodes a dataset file, choosing the format from its extension.
func LoadFile(path string) (analytics.Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return analytics.Dataset{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return analytics.Dataset{}, err
	}
	defer f.Close()
	return Decode(f, format)
}

func isDatasetExt(ext string) bool {
	for _, candidate := range datasetExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
