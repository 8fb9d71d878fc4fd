package detector

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DetectionResult reports whether a project uses a given ORM.
//
// Confidence is on the 0-100 integer scale. The enhancement subsystem uses
// 0.0-1.0 floats for the same concept; the two scales are both part of the
// external contract and are deliberately kept distinct.
type DetectionResult struct {
	Found      bool
	Confidence int
	Evidence   []string
	Warnings   []string
}

// ORMConfig is the shallow configuration extracted from an ORM's config
// file. Extraction matches key: 'value' shaped fragments only; it is not a
// language parser.
type ORMConfig struct {
	ORM            string
	Dialect        string
	SchemaPath     string
	OutDir         string
	ConfigPath     string
	DatabaseURL    string
	DatabaseEnvVar string
}

// DatabaseConfig is a usable connection descriptor resolved from env files
// or, failing that, from the extracted ORM configuration.
type DatabaseConfig struct {
	Provider string
	URL      string
	Source   string
}

// Detector recognizes one ORM in a project tree.
type Detector interface {
	Name() string
	Detect(root string) DetectionResult
	ExtractConfig(root string) *ORMConfig
	DatabaseConfig(root string) *DatabaseConfig
}

// Detectors returns the built-in detectors.
func Detectors() []Detector {
	return []Detector{NewDrizzleDetector(), NewPrismaDetector()}
}

// excludedDirs are never descended into during project walks.
var excludedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
	"coverage":     true,
}

const maxWalkDepth = 6

// findFile walks the project tree and returns the first regular file whose
// relative path satisfies pred. The walk is bounded in depth, skips the
// excluded directories, and treats unreadable branches as contributing
// nothing rather than failing.
func findFile(root string, pred func(rel string) bool) string {
	var found string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			if strings.Count(rel, string(filepath.Separator)) >= maxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if pred(filepath.ToSlash(rel)) {
			found = rel
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// packageDeps returns the merged dependencies and devDependencies from the
// project's package.json, or nil when there is none or it is malformed.
func packageDeps(root string) map[string]string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil
	}

	deps := make(map[string]string, len(manifest.Dependencies)+len(manifest.DevDependencies))
	for k, v := range manifest.Dependencies {
		deps[k] = v
	}
	for k, v := range manifest.DevDependencies {
		deps[k] = v
	}
	return deps
}

// envFileCandidates lists env files in resolution priority: the project
// directory first, then ancestor directories up to the filesystem root,
// then conventional monorepo subdirectories.
func envFileCandidates(root string) []string {
	var candidates []string
	candidates = append(candidates,
		filepath.Join(root, ".env.local"),
		filepath.Join(root, ".env"),
	)

	// Relative roots (the CLI default is ".") have no walkable parents;
	// resolve before climbing.
	dir := root
	if abs, err := filepath.Abs(root); err == nil {
		dir = abs
	}
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	for _, sub := range []string{"apps", "packages"} {
		entries, err := os.ReadDir(filepath.Join(root, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				candidates = append(candidates, filepath.Join(root, sub, e.Name(), ".env"))
			}
		}
	}

	return candidates
}

// resolveEnvVar scans the candidate env files for the first of the named
// variables that carries a value, returning the value and the file it came
// from. Unreadable or malformed files are skipped.
func resolveEnvVar(root string, names []string) (value, source string) {
	for _, candidate := range envFileCandidates(root) {
		vars, err := godotenv.Read(candidate)
		if err != nil {
			continue
		}
		for _, name := range names {
			if v := vars[name]; v != "" {
				return v, candidate
			}
		}
	}
	return "", ""
}

// providerFromURL infers the database provider from a connection string
// scheme; "" when the scheme is unrecognized.
func providerFromURL(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgresql"
	case strings.HasPrefix(url, "mysql://"):
		return "mysql"
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return "sqlite"
	default:
		return ""
	}
}

// connectionVarNames are the conventional env variables holding a database
// connection string, in lookup order.
var connectionVarNames = []string{"DATABASE_URL", "DB_URL", "POSTGRES_URL"}
