// Package main generates markdown reference documentation for the CLI, the
// configuration file and the view types.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs/reference
//	go run ./scripts/gendocs -gen=views -outdir=docs/reference
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var (
	genFlag    = flag.String("gen", "all", "what to generate: cli, config, views, all")
	outDirFlag = flag.String("outdir", "", "output directory (defaults based on gen type)")
)

// generators maps each -gen value to its generator and default output
// directory below the project root.
var generators = map[string]struct {
	fn     func(outDir string) error
	subdir string
}{
	"cli":    {fn: generateCLIDocs, subdir: filepath.Join("docs", "cli")},
	"config": {fn: generateConfigDocs, subdir: filepath.Join("docs", "reference")},
	"views":  {fn: generateViewDocs, subdir: filepath.Join("docs", "reference")},
}

func main() {
	flag.Parse()

	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}
	log.Printf("Project root: %s", projectRoot)

	if err := run(*genFlag, *outDirFlag, projectRoot); err != nil {
		log.Fatal(err)
	}
	log.Println("Done!")
}

func run(gen, outDir, projectRoot string) error {
	names := []string{gen}
	if gen == "all" {
		if outDir != "" {
			return fmt.Errorf("-outdir cannot be combined with -gen=all")
		}
		names = []string{"cli", "config", "views"}
	}

	for _, name := range names {
		g, ok := generators[name]
		if !ok {
			return fmt.Errorf("unknown -gen value: %s (use: cli, config, views, all)", name)
		}
		dir := outDir
		if dir == "" {
			dir = filepath.Join(projectRoot, g.subdir)
		}
		if err := g.fn(dir); err != nil {
			return fmt.Errorf("failed to generate %s docs: %w", name, err)
		}
	}
	return nil
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
