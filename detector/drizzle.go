package detector

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sqlshield/sqlshield/confidence"
)

// DrizzleDetector recognizes projects using drizzle-orm.
type DrizzleDetector struct {
	scorer confidence.Scorer
}

func NewDrizzleDetector() *DrizzleDetector {
	return &DrizzleDetector{scorer: confidence.Default()}
}

func (d *DrizzleDetector) Name() string { return "drizzle" }

var drizzleConfigNames = []string{
	"drizzle.config.ts",
	"drizzle.config.js",
	"drizzle.config.mjs",
	"drizzle.config.cjs",
}

// kvPattern matches key: 'value' shaped fragments in a config file. The
// extraction is intentionally shallow; it is not a TypeScript parser.
var kvPattern = regexp.MustCompile(`(\w+)\s*:\s*["'` + "`" + `]([^"'` + "`" + `]+)["'` + "`" + `]`)

func extractKeyValues(content string) map[string]string {
	kv := make(map[string]string)
	for _, m := range kvPattern.FindAllStringSubmatch(content, -1) {
		if _, ok := kv[m[1]]; !ok {
			kv[m[1]] = m[2]
		}
	}
	return kv
}

func (d *DrizzleDetector) findConfig(root string) string {
	return findFile(root, func(rel string) bool {
		base := rel[strings.LastIndex(rel, "/")+1:]
		for _, name := range drizzleConfigNames {
			if base == name {
				return true
			}
		}
		return false
	})
}

func (d *DrizzleDetector) Detect(root string) DetectionResult {
	var result DetectionResult
	ev := confidence.Evidence{
		Required: confidence.Bucket{Total: 2},
		Optional: confidence.Bucket{Total: 3},
	}

	deps := packageDeps(root)
	for _, pkg := range []string{"drizzle-orm", "drizzle-kit"} {
		if _, ok := deps[pkg]; ok {
			ev.Required.Found++
			result.Evidence = append(result.Evidence, fmt.Sprintf("package.json dependency: %s", pkg))
		}
	}

	if cfg := d.findConfig(root); cfg != "" {
		ev.Optional.Found++
		result.Evidence = append(result.Evidence, fmt.Sprintf("config file: %s", cfg))
	}
	if schema := findFile(root, func(rel string) bool {
		return strings.HasSuffix(rel, "schema.ts") || strings.HasSuffix(rel, "schema.js")
	}); schema != "" {
		ev.Optional.Found++
		result.Evidence = append(result.Evidence, fmt.Sprintf("schema file: %s", schema))
	}
	if dirExists(filepath.Join(root, "drizzle")) {
		ev.Optional.Found++
		result.Evidence = append(result.Evidence, "migrations directory: drizzle")
	}

	if _, err := os.Stat(filepath.Join(root, "prisma", "schema.prisma")); err == nil {
		ev.Negative++
		result.Warnings = append(result.Warnings, "prisma/schema.prisma present; project may use Prisma instead")
	}

	result.Found = d.scorer.Found(ev)
	result.Confidence = d.scorer.Percent(ev)
	return result
}

func (d *DrizzleDetector) ExtractConfig(root string) *ORMConfig {
	rel := d.findConfig(root)
	if rel == "" {
		return nil
	}

	path := filepath.Join(root, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	kv := extractKeyValues(string(data))
	cfg := &ORMConfig{
		ORM:        "drizzle",
		Dialect:    kv["dialect"],
		SchemaPath: kv["schema"],
		OutDir:     kv["out"],
		ConfigPath: path,
	}
	// Fallback defaults for fields the shallow extraction missed.
	if cfg.Dialect == "" {
		cfg.Dialect = "postgresql"
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "drizzle"
	}
	if url := kv["url"]; url != "" && !strings.Contains(url, "process.env") {
		cfg.DatabaseURL = url
	}
	return cfg
}

func (d *DrizzleDetector) DatabaseConfig(root string) *DatabaseConfig {
	cfg := d.ExtractConfig(root)

	if url, source := resolveEnvVar(root, connectionVarNames); url != "" {
		provider := providerFromURL(url)
		if provider == "" && cfg != nil {
			provider = cfg.Dialect
		}
		return &DatabaseConfig{Provider: provider, URL: url, Source: source}
	}

	if cfg == nil {
		return nil
	}
	if cfg.DatabaseURL != "" {
		provider := providerFromURL(cfg.DatabaseURL)
		if provider == "" {
			provider = cfg.Dialect
		}
		return &DatabaseConfig{Provider: provider, URL: cfg.DatabaseURL, Source: cfg.ConfigPath}
	}
	return &DatabaseConfig{Provider: cfg.Dialect, Source: cfg.ConfigPath}
}
