package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/chboudry/finance/internal/convert"
)

// main re-encodes already-formatted CSV export files as Parquet, so a run
// that produced row-encoded output can be upgraded without re-reading the
// raw source data.
func main() {
	var (
		inputDir  string
		outDir    string
		patterns  string
		blockRows int
		workers   int
	)

	flag.StringVar(&inputDir, "input-dir", "formatted", "directory holding the CSV export files")
	flag.StringVar(&outDir, "out-dir", "formatted-parquet", "output directory")
	flag.StringVar(&patterns, "patterns", "*.csv", "comma-separated glob patterns selecting input files")
	flag.IntVar(&blockRows, "block-rows", 0, "rows per conversion block (0 = default)")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "files converted concurrently")

	flag.Parse()

	paths, err := collect(inputDir, patterns)
	if err != nil {
		fatalf("%v", err)
	}
	if len(paths) == 0 {
		fatalf("no files in %s match %q", inputDir, patterns)
	}

	start := time.Now()
	err = convert.Files(context.Background(), paths, outDir, workers, convert.Options{BlockRows: blockRows})
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("converted %d files in %s", len(paths), time.Since(start).Truncate(time.Millisecond))
}

// collect resolves the comma-separated glob patterns against dir, returning
// each matching path once, in sorted order.
func collect(dir, patterns string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, pat := range strings.Split(patterns, ",") {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
