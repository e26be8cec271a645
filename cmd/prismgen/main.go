// prismgen scans the packages configured in prism.toml, compares their
// class signatures against the cache, and regenerates binding
// registration source for the configured engines.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/prism/gen"
	"github.com/chazu/prism/manifest"
)

func main() {
	dir := flag.String("C", ".", "Project directory (or any directory below it)")
	output := flag.String("o", "", "Output directory (overrides prism.toml)")
	force := flag.Bool("f", false, "Regenerate even when no signature changed")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: prismgen [options]\n\n")
		fmt.Fprintf(os.Stderr, "Generates scripting-runtime bindings for the packages configured in prism.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  prismgen                # generate from the nearest prism.toml\n")
		fmt.Fprintf(os.Stderr, "  prismgen -C ./services  # look for prism.toml from another directory\n")
		fmt.Fprintf(os.Stderr, "  prismgen -f -v          # force full regeneration, verbosely\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}
	log := commonlog.GetLogger("prismgen")

	m, err := manifest.FindAndLoad(*dir)
	if err != nil {
		fail("loading manifest: %v", err)
	}
	if m == nil {
		fail("no prism.toml found from %s", *dir)
	}

	outputDir := m.OutputDir()
	if *output != "" {
		outputDir = *output
	}

	cache, err := gen.OpenSigCache(m.CachePath())
	if err != nil {
		fail("%v", err)
	}
	defer cache.Close()

	models, err := gen.IntrospectPackages(m.Dir, m.Scan.Packages, m.Included)
	if err != nil {
		fail("introspecting: %v", err)
	}
	if len(models) == 0 {
		fail("no bindable types found in %s", strings.Join(m.Scan.Packages, ", "))
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fail("creating output dir: %v", err)
	}

	written := 0
	for _, model := range models {
		changed := *force
		for _, cls := range model.Classes {
			need, err := cache.NeedsRegeneration(cls.Name, model.FullSignature(cls))
			if err != nil {
				fail("signature cache: %v", err)
			}
			if need {
				log.Infof("class %s changed", cls.Name)
				changed = true
			}
		}

		outPath := filepath.Join(outputDir, model.Name+".go")
		if _, err := os.Stat(outPath); err != nil {
			// First generation for this package.
			changed = true
		}
		if !changed {
			log.Infof("package %s unchanged, skipping", model.ImportPath)
			continue
		}

		code, err := gen.GenerateRegistration(model, m.Output.Package)
		if err != nil {
			fail("generating %s: %v", model.ImportPath, err)
		}
		if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
			fail("writing %s: %v", outPath, err)
		}
		written++

		for _, cls := range model.Classes {
			if err := cache.Store(cls.Name, model.FullSignature(cls)); err != nil {
				fail("signature cache: %v", err)
			}
		}

		if *verbose {
			fmt.Printf("Wrote %s (%d classes, %d enums)\n", outPath, len(model.Classes), len(model.Enums))
		}
	}

	setup, err := gen.GenerateEngineSetup(m.Engines.Targets, m.Output.Package)
	if err != nil {
		fail("generating engine setup: %v", err)
	}
	setupPath := filepath.Join(outputDir, "engines.go")
	if err := os.WriteFile(setupPath, []byte(setup), 0o644); err != nil {
		fail("writing %s: %v", setupPath, err)
	}

	if *verbose {
		fmt.Printf("Wrote %s\n", setupPath)
		fmt.Printf("Generated bindings for %d package(s) in %s\n", written, outputDir)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
