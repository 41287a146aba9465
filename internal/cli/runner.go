package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/export"
	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	_ "github.com/idilsaglam/tada/internal/store/jsonstore"
	_ "github.com/idilsaglam/tada/internal/store/sqlitestore"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options tune behavior from root flags and config.
type Options struct {
	Group  bool // list grouped by pending/done
	Config *config.Config
	Logger *log.Logger

	// OpenSlot overrides the configured storage backend.
	OpenSlot func() (kv.Store, error)
	// Interactive overrides the TUI runner.
	Interactive func(st *store.Store, opts tui.Options) error
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		return doInteractive(opt)
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ui":
		return doInteractive(opt)

	case "ls":
		return doList(opt)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <title...>")
			return 2
		}
		return doAdd(opt, strings.Join(a, " "))

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: todo done <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("done: not a number: " + a[0])
			return 2
		}
		return doToggle(opt, n)

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: todo edit <index> <title...>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("edit: not a number: " + a[0])
			return 2
		}
		return doEdit(opt, n, strings.Join(a[1:], " "))

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return doRemove(opt, n)

	case "export":
		if len(a) < 1 || len(a) > 2 {
			ui.Fail("usage: todo export <json|csv|pdf> [path]")
			return 2
		}
		path := ""
		if len(a) == 2 {
			path = a[1]
		}
		return doExport(opt, a[0], path)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprintf(ui.Stdout, `todo - a tiny to-do list

Usage:
  todo [flags] [subcommand] [args]

Subcommands:
  (none) | ui               Open the interactive list
  add <title...>            Add a new task (title can be multiple words)
  ls                        List tasks
  done <index>              Toggle completed for task at 1-based index
  edit <index> <title...>   Rename task at 1-based index
  rm <index>                Remove task at 1-based index
  export <%s> [path]   Export tasks (stdout when no path)

Flags:
  -group                    group ls output by pending/done
  -backend file|sqlite      storage backend
  -data-dir <dir>           where tasks are stored (default %s)
  -theme classic|neon|mono  color theme
  -log-level <level>        debug, info, warn or error (log file only)
  -config <file>            TOML config file

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo edit 2 "Buy oat milk"
  todo rm 3
`, strings.Join(export.Formats, "|"), config.DefaultDataDir)
}

// -------------- store plumbing ----------------

// writeErrors collects asynchronous write failures of a one-shot command.
type writeErrors struct {
	mu   sync.Mutex
	errs []error
}

func (w *writeErrors) add(err error) {
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
}

func (w *writeErrors) first() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.errs) == 0 {
		return nil
	}
	return w.errs[0]
}

func (opt Options) logger() *log.Logger {
	if opt.Logger != nil {
		return opt.Logger
	}
	return logging.Discard()
}

func (opt Options) openSlot() (kv.Store, error) {
	if opt.OpenSlot != nil {
		return opt.OpenSlot()
	}
	cfg := opt.Config
	if cfg == nil {
		cfg = &config.Config{Backend: config.DefaultBackend, DataDir: config.DefaultDataDir}
	}
	return kv.Open(cfg.Backend, cfg.DataDir)
}

// withStore opens and loads the store, runs fn, then waits for the writes
// fn triggered. Unreadable data is never overwritten from the CLI.
func withStore(opt Options, fn func(st *store.Store) int) int {
	slot, err := opt.openSlot()
	if err != nil {
		ui.Fail("open storage: " + err.Error())
		return 1
	}
	var werrs writeErrors
	st := store.New(slot, store.WithLogger(opt.logger()), store.WithErrorHandler(werrs.add))
	defer st.Close()

	if err := st.Load(context.Background()); err != nil {
		ui.Fail(store.Notice(err) + ": " + err.Error())
		ui.Hint("Nothing was changed. Fix or remove the stored data and retry.")
		return 1
	}

	code := fn(st)
	st.Flush()
	if err := werrs.first(); err != nil {
		ui.Fail(store.Notice(err) + ": " + err.Error())
		return 1
	}
	return code
}

// taskAt resolves a 1-based index and prints a hint when it is out of range.
func taskAt(st *store.Store, userIndex int) (model.Task, bool) {
	t, ok := st.At(userIndex - 1)
	if !ok {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", st.Len(), userIndex))
		ui.Hint("Hint: run `todo ls` to see valid indexes")
	}
	return t, ok
}

// -------------- subcommand impls ----------------

func doInteractive(opt Options) int {
	slot, err := opt.openSlot()
	if err != nil {
		ui.Fail("open storage: " + err.Error())
		return 1
	}
	logger := opt.logger()
	errs := make(chan error, 16)
	st := store.New(slot, store.WithLogger(logger), store.WithErrorHandler(func(err error) {
		select {
		case errs <- err:
		default:
			logger.Warn("notice dropped", "err", err)
		}
	}))
	// the TUI reports a failed load itself and carries on with an empty list
	loadErr := st.Load(context.Background())

	run := opt.Interactive
	if run == nil {
		run = tui.Run
	}
	runErr := run(st, tui.Options{Errors: errs, LoadErr: loadErr})
	if err := st.Close(); err != nil {
		logger.Warn("close storage", "err", err)
	}
	if runErr != nil {
		ui.Fail("tui: " + runErr.Error())
		return 1
	}
	return 0
}

func doList(opt Options) int {
	return withStore(opt, func(st *store.Store) int {
		rows := ui.Rows(st.Tasks())
		t := ui.Current()

		d, p := ui.Stats(rows)
		header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
			ui.C(t.Title, "To-Do List"),
			ui.C(t.Success, t.SymDone), d,
			ui.C(t.Pending, t.SymUnchecked), p,
			ui.C(t.Accent, "Total"), len(rows),
		)

		var lines []string
		lines = append(lines, header)
		lines = append(lines, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)))
		lines = append(lines, "")

		if opt.Group {
			lines = append(lines, groupLines(rows)...)
		} else {
			lines = append(lines, flatLines(rows)...)
		}
		lines = append(lines, "")
		lines = append(lines, ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
		ui.Panel(lines)
		return 0
	})
}

func doAdd(opt Options, title string) int {
	return withStore(opt, func(st *store.Store) int {
		if _, err := st.Add(title); err != nil {
			ui.Fail("add: " + store.Notice(err))
			return 2
		}
		ui.OK("added")
		return 0
	})
}

func doToggle(opt Options, userIndex int) int {
	return withStore(opt, func(st *store.Store) int {
		t, ok := taskAt(st, userIndex)
		if !ok {
			return 2
		}
		st.ToggleComplete(t.ID)
		if t.Completed {
			ui.OK("reopened")
		} else {
			ui.OK("completed")
		}
		return 0
	})
}

func doEdit(opt Options, userIndex int, title string) int {
	return withStore(opt, func(st *store.Store) int {
		t, ok := taskAt(st, userIndex)
		if !ok {
			return 2
		}
		if err := st.EditTitle(t.ID, title); err != nil {
			ui.Fail("edit: " + store.Notice(err))
			return 2
		}
		ui.OK("edited")
		return 0
	})
}

func doRemove(opt Options, userIndex int) int {
	return withStore(opt, func(st *store.Store) int {
		t, ok := taskAt(st, userIndex)
		if !ok {
			return 2
		}
		st.Remove(t.ID)
		ui.OK("removed")
		return 0
	})
}

func doExport(opt Options, format, path string) int {
	if !export.Valid(format) {
		ui.Fail(fmt.Sprintf("export: unknown format %q (want %s)", format, strings.Join(export.Formats, ", ")))
		return 2
	}
	return withStore(opt, func(st *store.Store) int {
		if path == "" {
			if err := export.Write(ui.Stdout, format, st.Tasks()); err != nil {
				ui.Fail("export: " + err.Error())
				return 1
			}
			return 0
		}

		f, err := os.Create(path)
		if err != nil {
			ui.Fail("export: " + err.Error())
			return 1
		}
		err = export.Write(f, format, st.Tasks())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			ui.Fail("export: " + err.Error())
			return 1
		}
		ui.OK(fmt.Sprintf("exported %d tasks to %s", st.Len(), path))
		return 0
	})
}

// -------------- rendering helpers --------------

func flatLines(rows []ui.Row) []string {
	if len(rows) == 0 {
		return []string{ui.C(ui.Current().Muted, "no items")}
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Line())
	}
	return out
}

func groupLines(rows []ui.Row) []string {
	var pend, done []ui.Row
	for _, r := range rows {
		if r.Completed {
			done = append(done, r)
		} else {
			pend = append(pend, r)
		}
	}
	var lines []string
	lines = append(lines, ui.C(ui.Current().Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(ui.Current().Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(ui.Current().Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
