// Command inject wires the voting widget into a static site: it inserts a
// script tag into every HTML page under the site root that does not already
// reference the widget, keeping the src path relative to the page's depth.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	var (
		siteDir = flag.String("site", ".", "site root directory to scan for *.html files")
		script  = flag.String("script", "voting.js", "script file name referenced from every page, relative to the site root")
		anchor  = flag.String("anchor", "</body>", "tag the script line is inserted before")
		dryRun  = flag.Bool("dry-run", false, "report what would change without writing")
	)
	flag.Parse()

	res, err := injectAll(*siteDir, *script, *anchor, *dryRun)
	if err != nil {
		log.Fatalf("inject: %v", err)
	}

	fmt.Printf("scanned %d pages: %d injected, %d already wired, %d without anchor\n",
		res.scanned, res.injected, res.skipped, res.noAnchor)
	if *dryRun {
		fmt.Println("dry run, nothing written")
	}
}

type result struct {
	scanned  int
	injected int
	skipped  int
	noAnchor int
}

// injectAll walks root and rewrites every HTML page that lacks the script
// reference. Each rewritten page gets a .backup copy of its original content.
func injectAll(root, script, anchor string, dryRun bool) (*result, error) {
	res := &result{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		res.scanned++

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		content := string(raw)

		if strings.Contains(content, script) {
			res.skipped++
			return nil
		}
		if !strings.Contains(content, anchor) {
			res.noAnchor++
			log.Printf("WARN: %s has no %q anchor, skipped", path, anchor)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		line := scriptLine(rel, script)
		updated := strings.Replace(content, anchor, line+"\n"+anchor, 1)

		if !dryRun {
			if err := os.WriteFile(path+".backup", raw, 0o644); err != nil {
				return fmt.Errorf("backup %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
		res.injected++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// scriptLine builds the script tag for a page, climbing one directory level
// per level of nesting so the src resolves against the site root.
func scriptLine(relPage, script string) string {
	depth := strings.Count(filepath.ToSlash(relPage), "/")
	prefix := strings.Repeat("../", depth)
	return fmt.Sprintf(`<script src="%s%s"></script>`, prefix, script)
}
