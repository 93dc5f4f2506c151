package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file system locations used by the dashboard
type Paths struct {
	ExecutableDir string
	DataDir       string
	LogsDir       string

	PAPsCSV        string
	WorkersCSV     string
	ContractorsCSV string
	GRCCSV         string
	DistrictCSV    string
	ChecklistCSV   string
}

// ResolvePaths resolves the configured data directory.
// Relative directories are looked up first from the working directory and
// then next to the executable; the first one that exists wins. When neither
// exists the working-directory form is kept so missing files degrade to
// placeholders instead of failing startup.
func ResolvePaths(cfg DataConfig) (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	dataDir := cfg.Dir
	if !filepath.IsAbs(dataDir) {
		candidates := []string{
			filepath.Clean(dataDir),
			filepath.Join(exeDir, dataDir),
		}
		dataDir = candidates[0]
		for _, c := range candidates {
			if DirExists(c) {
				dataDir = c
				break
			}
		}
	}

	return &Paths{
		ExecutableDir:  exeDir,
		DataDir:        dataDir,
		LogsDir:        filepath.Join(exeDir, "logs"),
		PAPsCSV:        filepath.Join(dataDir, cfg.PAPsFile),
		WorkersCSV:     filepath.Join(dataDir, cfg.WorkersFile),
		ContractorsCSV: filepath.Join(dataDir, cfg.ContractorsFile),
		GRCCSV:         filepath.Join(dataDir, cfg.GRCFile),
		DistrictCSV:    filepath.Join(dataDir, cfg.DistrictFile),
		ChecklistCSV:   filepath.Join(dataDir, cfg.ChecklistFile),
	}, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	// Resolve symlinks to get the actual executable location
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// LogPathResolution logs where each snapshot is expected
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Resolved data paths",
		slog.String("executable_dir", p.ExecutableDir),
		slog.String("data_dir", p.DataDir),
		slog.Bool("paps_present", FileExists(p.PAPsCSV)),
		slog.Bool("workers_present", FileExists(p.WorkersCSV)),
		slog.Bool("contractors_present", FileExists(p.ContractorsCSV)),
		slog.Bool("grc_present", FileExists(p.GRCCSV)),
		slog.Bool("district_present", FileExists(p.DistrictCSV)),
		slog.Bool("checklist_present", FileExists(p.ChecklistCSV)),
	)
}
