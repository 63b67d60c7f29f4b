package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chboudry/finance/internal/datasource/file"
	"github.com/chboudry/finance/internal/dedup"
	"github.com/chboudry/finance/internal/metrics"
	"github.com/chboudry/finance/internal/metrics/datadog"
	"github.com/chboudry/finance/internal/metrics/prompush"
	"github.com/chboudry/finance/internal/pipeline"
	"github.com/chboudry/finance/internal/sink"
)

// main streams a raw accounts CSV into the bank/entity/account node files
// and the ownership/membership relationship files.
func main() {
	var (
		inputPath      string
		outDir         string
		formatFlg      string
		batchSize      int
		dedupIndex     string
		foldNames      bool
		metricsBackend string
		pushGatewayURL string
		datadogAddr    string
	)

	flag.StringVar(&inputPath, "input", "", "raw accounts CSV path (required)")
	flag.StringVar(&outDir, "out-dir", "formatted", "output directory")
	flag.StringVar(&formatFlg, "format", "csv", "output encoding (csv or parquet)")
	flag.IntVar(&batchSize, "batch-size", 0, "columnar row-buffer size (0 = default)")
	flag.StringVar(&dedupIndex, "dedup-index", "", "sqlite file for disk-backed dedup; empty keeps the in-memory sets")
	flag.BoolVar(&foldNames, "fold-names", false, "strip diacritics from bank and entity names")
	flag.StringVar(&metricsBackend, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddr, "datadog-addr", "", "dogstatsd address (overrides env DD_AGENT_ADDR)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	if inputPath == "" {
		fatalf("missing required -input")
	}
	format, err := sink.ParseFormat(formatFlg)
	if err != nil {
		fatalf("%v", err)
	}

	setupMetrics(metricsBackend, pushGatewayURL, datadogAddr, "accounts", *verbose)

	ctx := context.Background()
	start := time.Now()

	var index *dedup.Index
	if dedupIndex != "" {
		index, err = dedup.OpenIndex(ctx, dedupIndex)
		if err != nil {
			fatalf("open dedup index: %v", err)
		}
		defer func() {
			if err := index.Close(); err != nil {
				log.Printf("dedup index: close error: %v", err)
			}
		}()
	}

	in, err := file.NewLocal(inputPath).Open(ctx)
	if err != nil {
		fatalf("%v", err)
	}
	defer in.Close()

	stats, err := pipeline.Accounts(ctx, in, pipeline.AccountsOptions{
		OutDir:    outDir,
		Format:    format,
		BatchSize: batchSize,
		Index:     index,
		FoldNames: foldNames,
	})
	if flushErr := metrics.Flush(); flushErr != nil {
		log.Printf("metrics: flush error: %v", flushErr)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("accounts: rows=%d skipped=%d node_rows=%d rel_rows=%d sinks=%d in %s",
		stats.Rows, stats.Skipped, stats.NodeRows, stats.RelRows, stats.Sinks,
		time.Since(start).Truncate(time.Millisecond))
}

// setupMetrics installs the requested metrics backend, resolving each
// setting flag -> env -> default the same way for every binary.
func setupMetrics(backend, pushGatewayURL, datadogAddr, job string, verbose bool) {
	if backend == "" {
		backend = os.Getenv("METRICS_BACKEND")
	}
	switch backend {
	case "pushgateway":
		gwURL := pushGatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%v job=%v", gwURL, job)
		metrics.SetBackend(b)

	case "datadog":
		addr := datadogAddr
		if addr == "" {
			addr = os.Getenv("DD_AGENT_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "finance"})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%v job=%v", addr, job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backend)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backend)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
