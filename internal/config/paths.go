package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	InputDir      string
	OutputDir     string
	LogsDir       string

	// Output subdirectories
	CombinedDir string // per-unit combined workbooks
	CleanDir    string // per-unit merged+derived audit workbooks
	ResultsDir  string // consolidated results table

	// Well-known output files
	ResultsCSV  string
	ResultsXLSX string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the
// current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return PathsFromBase(filepath.Dir(exe)), nil
}

// PathsFromBase builds the path set under an explicit base directory.
// Tests use this with t.TempDir().
//
// Directory structure:
//
//	<base>/
//	  ├── data/
//	  │   ├── input/         (trend-export workbooks to process)
//	  │   └── output/
//	  │       ├── combined/  (per-unit combined workbooks)
//	  │       ├── clean/     (per-unit merged+derived workbooks)
//	  │       └── results/   (consolidated efficiency table)
//	  └── logs/
func PathsFromBase(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	outputDir := filepath.Join(dataDir, "output")
	resultsDir := filepath.Join(outputDir, ResultsSubdir)

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		InputDir:      filepath.Join(dataDir, "input"),
		OutputDir:     outputDir,
		LogsDir:       filepath.Join(baseDir, "logs"),

		CombinedDir: filepath.Join(outputDir, CombinedSubdir),
		CleanDir:    filepath.Join(outputDir, CleanSubdir),
		ResultsDir:  resultsDir,

		ResultsCSV:  filepath.Join(resultsDir, ResultsCSVName),
		ResultsXLSX: filepath.Join(resultsDir, ResultsXLSXName),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.InputDir,
		p.OutputDir,
		p.CombinedDir,
		p.CleanDir,
		p.ResultsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// SetInputDir overrides the input directory, e.g. from a CLI flag.
func (p *Paths) SetInputDir(dir string) {
	p.InputDir = dir
}

// SetOutputDir overrides the output directory and rewires every output
// subpath beneath it.
func (p *Paths) SetOutputDir(dir string) {
	p.OutputDir = dir
	p.CombinedDir = filepath.Join(dir, CombinedSubdir)
	p.CleanDir = filepath.Join(dir, CleanSubdir)
	p.ResultsDir = filepath.Join(dir, ResultsSubdir)
	p.ResultsCSV = filepath.Join(p.ResultsDir, ResultsCSVName)
	p.ResultsXLSX = filepath.Join(p.ResultsDir, ResultsXLSXName)
}

// GetCombinedPath returns the path of a combined workbook by file name
func (p *Paths) GetCombinedPath(name string) string {
	return filepath.Join(p.CombinedDir, name)
}

// GetCleanPath returns the path of a clean (merged+derived) workbook
func (p *Paths) GetCleanPath(name string) string {
	return filepath.Join(p.CleanDir, name)
}

// GetLogPath returns a log file path inside the logs directory
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
