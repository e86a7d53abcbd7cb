package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	bplus "github.com/dreamsxin/bplus"
)

// repl is an interactive command loop over an open store, modeled on the
// teacher's sloty CLI: a peterh/liner prompt with history and a small set
// of line commands.
type repl struct {
	store *bplus.Store
	out   *os.File
	liner *liner.State
}

func runREPL(store *bplus.Store, out, errOut *os.File) int {
	r := &repl{store: store, out: out}

	if err := r.run(); err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	return 0
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".bptree_bench_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Fprintln(r.out, "bptree-bench interactive mode. Type 'help' for commands.")

	for {
		line, err := r.liner.Prompt("bptree> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(r.out, "\nbye")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if r.dispatch(cmd, args) {
			break
		}
	}

	r.saveHistory()

	return nil
}

// dispatch runs one command, reporting whether the REPL should exit.
func (r *repl) dispatch(cmd string, args []string) bool {
	switch cmd {
	case "exit", "quit", "q":
		return true
	case "help", "?":
		r.printHelp()
	case "get":
		r.cmdGet(args)
	case "set":
		r.cmdSet(args)
	case "del", "delete", "remove":
		r.cmdDelete(args)
	case "range":
		r.cmdRange(args)
	case "compact":
		r.cmdCompact()
	default:
		fmt.Fprintf(r.out, "unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return false
}

func (r *repl) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		_, _ = r.liner.WriteHistory(f)
		_ = f.Close()
	}
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, "commands:")
	fmt.Fprintln(r.out, "  get <key>                 look up a key")
	fmt.Fprintln(r.out, "  set <key> <value>         insert or overwrite a key")
	fmt.Fprintln(r.out, "  del <key>                 remove a key")
	fmt.Fprintln(r.out, "  range <start> <end>       list keys in [start, end]")
	fmt.Fprintln(r.out, "  compact                   compact the backing file")
	fmt.Fprintln(r.out, "  exit | quit | q           leave the REPL")
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: get <key>")

		return
	}

	value, err := r.store.Get([]byte(args[0]))
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)

		return
	}

	fmt.Fprintln(r.out, string(value))
}

func (r *repl) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.out, "usage: set <key> <value>")

		return
	}

	if err := r.store.Set([]byte(args[0]), []byte(args[1])); err != nil {
		fmt.Fprintln(r.out, "error:", err)

		return
	}

	fmt.Fprintln(r.out, "ok")
}

func (r *repl) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: del <key>")

		return
	}

	if err := r.store.Remove([]byte(args[0])); err != nil {
		fmt.Fprintln(r.out, "error:", err)

		return
	}

	fmt.Fprintln(r.out, "ok")
}

func (r *repl) cmdRange(args []string) {
	var start, end []byte

	if len(args) > 0 && args[0] != "-" {
		start = []byte(args[0])
	}

	if len(args) > 1 && args[1] != "-" {
		end = []byte(args[1])
	}

	count := 0

	err := r.store.Range(start, end, func(key, value []byte) error {
		count++

		fmt.Fprintf(r.out, "%s = %s\n", key, value)

		return nil
	})
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)

		return
	}

	fmt.Fprintf(r.out, "(%d entries)\n", count)
}

func (r *repl) cmdCompact() {
	if err := r.store.Compact(); err != nil {
		fmt.Fprintln(r.out, "error:", err)

		return
	}

	fmt.Fprintln(r.out, "ok")
}

func (r *repl) completer(line string) []string {
	commands := []string{"get", "set", "del", "delete", "remove", "range", "compact", "help", "exit", "quit"}

	var matches []string

	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			matches = append(matches, c)
		}
	}

	return matches
}
