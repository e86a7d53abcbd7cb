// bptree-bench seeds a bplus store with random keys and reports timings
// for Set, Get, and Range, or drops into an interactive REPL for ad hoc
// probing against an open store.
//
// Usage:
//
//	bptree-bench [options]
//
// Options:
//
//	-p, --path          Backing file path (default "bench.db")
//	-n, --count         Number of keys to seed (default 10000)
//	    --page-size     Fanout / page_size (default 128)
//	    --codec         Compression codec: s2 or none (default "s2")
//	-c, --config        JSONC config file layered under these flags
//	-i, --interactive   Drop into a REPL instead of running the benchmark
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	bplus "github.com/dreamsxin/bplus"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	flagSet := flag.NewFlagSet("bptree-bench", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	path := flagSet.StringP("path", "p", "bench.db", "Backing file path")
	count := flagSet.IntP("count", "n", 10000, "Number of keys to seed")
	pageSize := flagSet.Int("page-size", bplus.DefaultPageSize, "Fanout (page_size)")
	codecName := flagSet.String("codec", "s2", "Compression codec: s2 or none")
	configPath := flagSet.StringP("config", "c", "", "JSONC config file layered under these flags")
	interactive := flagSet.BoolP("interactive", "i", false, "Drop into a REPL instead of benchmarking")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	if *configPath != "" {
		cfg, err := loadFileConfig(*configPath)
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)

			return 1
		}

		applyFileConfig(cfg, flagSet, path, count, pageSize, codecName)
	}

	codec, err := resolveCodec(*codecName)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	opts := bplus.Options{PageSize: *pageSize, Codec: codec}

	store, err := bplus.Open(*path, opts)
	if err != nil {
		fmt.Fprintln(errOut, "error: opening store:", err)

		return 1
	}

	defer func() { _ = store.Close() }()

	if *interactive {
		return runREPL(store, out, errOut)
	}

	return runBenchmark(store, *count, out, errOut)
}

// applyFileConfig layers file-sourced values under explicit flags: a
// value set on the command line always wins over the config file, and
// the config file always wins over the flag default.
func applyFileConfig(cfg fileConfig, flagSet *flag.FlagSet, path *string, count, pageSize *int, codecName *string) {
	if cfg.Path != "" && !flagSet.Changed("path") {
		*path = cfg.Path
	}

	if cfg.Count != 0 && !flagSet.Changed("count") {
		*count = cfg.Count
	}

	if cfg.PageSize != 0 && !flagSet.Changed("page-size") {
		*pageSize = cfg.PageSize
	}

	if cfg.Codec != "" && !flagSet.Changed("codec") {
		*codecName = cfg.Codec
	}
}

func resolveCodec(name string) (bplus.Codec, error) {
	switch name {
	case "", "s2":
		return bplus.DefaultOptions().Codec, nil
	case "none":
		return bplus.NopCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (want s2 or none)", name)
	}
}

func runBenchmark(store *bplus.Store, count int, out, errOut *os.File) int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // benchmark seeding, not cryptographic

	keys := make([][]byte, count)
	values := make([][]byte, count)

	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%010d-%010d", rng.Int63(), i))
		values[i] = []byte(fmt.Sprintf("value-%010d", rng.Int63()))
	}

	setStart := time.Now()

	for i := range keys {
		if err := store.Set(keys[i], values[i]); err != nil {
			fmt.Fprintln(errOut, "error: set:", err)

			return 1
		}
	}

	setElapsed := time.Since(setStart)

	getStart := time.Now()

	for i := range keys {
		if _, err := store.Get(keys[i]); err != nil {
			fmt.Fprintln(errOut, "error: get:", err)

			return 1
		}
	}

	getElapsed := time.Since(getStart)

	rangeStart := time.Now()

	visited := 0

	err := store.Range(nil, nil, func(key, value []byte) error {
		visited++

		return nil
	})
	if err != nil {
		fmt.Fprintln(errOut, "error: range:", err)

		return 1
	}

	rangeElapsed := time.Since(rangeStart)

	fmt.Fprintf(out, "seeded %d keys\n", count)
	fmt.Fprintf(out, "set:   %v total, %v/op\n", setElapsed, setElapsed/time.Duration(count))
	fmt.Fprintf(out, "get:   %v total, %v/op\n", getElapsed, getElapsed/time.Duration(count))
	fmt.Fprintf(out, "range: %v total, %d keys visited\n", rangeElapsed, visited)

	return 0
}
