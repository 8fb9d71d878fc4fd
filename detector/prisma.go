package detector

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sqlshield/sqlshield/confidence"
)

// PrismaDetector recognizes projects using Prisma.
type PrismaDetector struct {
	scorer confidence.Scorer
}

func NewPrismaDetector() *PrismaDetector {
	return &PrismaDetector{scorer: confidence.Default()}
}

func (d *PrismaDetector) Name() string { return "prisma" }

var (
	prismaDatasourceRe = regexp.MustCompile(`(?s)datasource\s+\w+\s*\{(.*?)\}`)
	prismaProviderRe   = regexp.MustCompile(`provider\s*=\s*"(\w+)"`)
	prismaEnvURLRe     = regexp.MustCompile(`url\s*=\s*env\("(\w+)"\)`)
	prismaRawURLRe     = regexp.MustCompile(`url\s*=\s*"([^"]+)"`)
)

func (d *PrismaDetector) findSchema(root string) string {
	conventional := filepath.Join("prisma", "schema.prisma")
	if _, err := os.Stat(filepath.Join(root, conventional)); err == nil {
		return conventional
	}
	return findFile(root, func(rel string) bool {
		return strings.HasSuffix(rel, "schema.prisma")
	})
}

func (d *PrismaDetector) Detect(root string) DetectionResult {
	var result DetectionResult
	ev := confidence.Evidence{
		Required: confidence.Bucket{Total: 2},
		Optional: confidence.Bucket{Total: 3},
	}

	deps := packageDeps(root)
	for _, pkg := range []string{"prisma", "@prisma/client"} {
		if _, ok := deps[pkg]; ok {
			ev.Required.Found++
			result.Evidence = append(result.Evidence, fmt.Sprintf("package.json dependency: %s", pkg))
		}
	}

	schema := d.findSchema(root)
	if schema != "" {
		ev.Optional.Found++
		result.Evidence = append(result.Evidence, fmt.Sprintf("schema file: %s", schema))
	}
	if dirExists(filepath.Join(root, "prisma", "migrations")) {
		ev.Optional.Found++
		result.Evidence = append(result.Evidence, "migrations directory: prisma/migrations")
	}
	if schema != "" {
		if data, err := os.ReadFile(filepath.Join(root, schema)); err == nil &&
			strings.Contains(string(data), "generator client") {
			ev.Optional.Found++
			result.Evidence = append(result.Evidence, "generator client block in schema")
		}
	}

	if cfg := (&DrizzleDetector{}).findConfig(root); cfg != "" {
		ev.Negative++
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s present; project may use Drizzle instead", cfg))
	}

	result.Found = d.scorer.Found(ev)
	result.Confidence = d.scorer.Percent(ev)
	return result
}

func (d *PrismaDetector) ExtractConfig(root string) *ORMConfig {
	rel := d.findSchema(root)
	if rel == "" {
		return nil
	}

	path := filepath.Join(root, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	content := string(data)

	// The generator block carries its own provider line; only the
	// datasource block describes the database.
	if m := prismaDatasourceRe.FindStringSubmatch(content); m != nil {
		content = m[1]
	}

	cfg := &ORMConfig{
		ORM:        "prisma",
		SchemaPath: path,
		ConfigPath: path,
		OutDir:     filepath.Join(filepath.Dir(path), "migrations"),
	}
	if m := prismaProviderRe.FindStringSubmatch(content); m != nil {
		cfg.Dialect = m[1]
	} else {
		cfg.Dialect = "postgresql"
	}
	if m := prismaEnvURLRe.FindStringSubmatch(content); m != nil {
		cfg.DatabaseEnvVar = m[1]
	} else if m := prismaRawURLRe.FindStringSubmatch(content); m != nil {
		cfg.DatabaseURL = m[1]
	}
	return cfg
}

func (d *PrismaDetector) DatabaseConfig(root string) *DatabaseConfig {
	cfg := d.ExtractConfig(root)

	names := connectionVarNames
	if cfg != nil && cfg.DatabaseEnvVar != "" {
		names = append([]string{cfg.DatabaseEnvVar}, connectionVarNames...)
	}
	if url, source := resolveEnvVar(root, names); url != "" {
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
