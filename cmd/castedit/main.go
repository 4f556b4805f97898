/*
castedit rewrites the timing of a terminal recording.

	castedit -ops ops.toml input.cast output.cast

The operation list says which lines to retime and how (set, offset, linear,
timelapse). The output is only written once every operation succeeded.
*/
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/qnkhuat/castedit/internal/cfg"
	"github.com/qnkhuat/castedit/internal/logging"
	"github.com/qnkhuat/castedit/pkg/cast"
	"github.com/qnkhuat/castedit/pkg/editor"
	"github.com/qnkhuat/castedit/pkg/journal"
	"github.com/qnkhuat/castedit/pkg/oplist"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input file> <output file>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}

	var opsPath = flag.String("ops", "", "Operation list to apply (TOML, JSON or YAML)")
	var logPath = flag.String("log", filepath.Join(os.TempDir(), cfg.EDITOR_LOG_FILE), "Log file, empty to log to stderr")
	var journalPath = flag.String("journal", "", "Record the edit in this journal database")
	var yes = flag.Bool("y", false, "Overwrite the output file without asking")
	var dryRun = flag.Bool("dry-run", false, "Apply the operations and report, but write nothing")
	var watch = flag.Bool("watch", false, "Apply again whenever the operation list changes")
	var version = flag.Bool("version", false, fmt.Sprintf("castedit version: %s", cfg.CASTEDIT_VERSION))

	flag.Parse()

	if *version {
		fmt.Printf("castedit %s\n", cfg.CASTEDIT_VERSION)
		os.Exit(0)
	}

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}
	if *watch && *opsPath == "" {
		fmt.Fprintln(os.Stderr, "-watch needs -ops")
		os.Exit(1)
	}

	logging.Config(*logPath, "CASTEDIT: ")

	j := job{
		input:   flag.Arg(0),
		output:  flag.Arg(1),
		journal: *journalPath,
		dryRun:  *dryRun,
	}

	if !*yes && !*dryRun && !confirmOverwrite(j.output) {
		os.Exit(1)
	}

	ops, err := loadOps(*opsPath)
	if err == nil {
		err = j.run(ops)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to edit recording: %s\n", err)
		log.Printf("Failed to edit recording: %s", err)
		if !*watch {
			os.Exit(1)
		}
	}

	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Printf("Watching %s, press Ctrl-C to stop\n", *opsPath)
	err = oplist.Watch(ctx, *opsPath, func(ops []editor.Operation, err error) {
		if err == nil {
			err = j.run(ops)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to edit recording: %s\n", err)
			log.Printf("Failed to edit recording: %s", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Stopped watching: %s\n", err)
		os.Exit(1)
	}
}

func loadOps(path string) ([]editor.Operation, error) {
	if path == "" {
		log.Printf("No operation list given, copying recording unchanged")
		return nil, nil
	}
	ops, err := oplist.Load(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d operations from %s", len(ops), path)
	return ops, nil
}

// confirmOverwrite asks before replacing an existing output when attached to a terminal.
func confirmOverwrite(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s exists. Overwrite", path),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return false
	}
	return true
}

type job struct {
	input   string
	output  string
	journal string
	dryRun  bool
}

func (j job) run(ops []editor.Operation) error {
	raw, err := os.ReadFile(j.input)
	if err != nil {
		return err
	}
	rec, err := cast.LoadCompressed(bytes.NewReader(raw), cast.CompressionFor(j.input))
	if err != nil {
		return fmt.Errorf("%s: %w", j.input, err)
	}
	durationBefore := rec.Duration()

	if err := editor.Apply(rec, ops); err != nil {
		return err
	}

	// encode once up front so a bad timestamp fails before anything is written
	after, err := rec.Bytes()
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("%d events, %.3fs -> %.3fs", rec.Len(), durationBefore, rec.Duration())
	if j.dryRun {
		fmt.Printf("%s (dry run): %s\n", j.output, summary)
		return nil
	}

	// a journal that cannot be opened fails the run before the output exists
	var db *journal.DB
	if j.journal != "" {
		db, err = journal.Open(j.journal)
		if err != nil {
			return fmt.Errorf("open journal %s: %w", j.journal, err)
		}
		defer db.Close()
	}

	if err := rec.WriteFile(j.output); err != nil {
		return fmt.Errorf("write %s: %w", j.output, err)
	}
	log.Printf("Wrote %s: %s", j.output, summary)
	fmt.Printf("%s: %s\n", j.output, summary)

	if db != nil {
		if err := j.record(db, ops, raw, after, rec, durationBefore); err != nil {
			// the output is complete, only the journal entry is missing
			fmt.Fprintf(os.Stderr, "Failed to record edit: %s\n", err)
			log.Printf("Failed to record edit: %s", err)
		}
	}
	return nil
}

func (j job) record(db *journal.DB, ops []editor.Operation, raw, after []byte, rec *cast.Recording, durationBefore float64) error {
	written, err := os.ReadFile(j.output)
	if err != nil {
		return err
	}

	entry := journal.NewEntry(j.input, j.output, raw, written, ops)
	entry.Events = rec.Len()
	entry.DurationBefore = durationBefore
	entry.DurationAfter = rec.Duration()
	id, err := db.AddEdit(entry, after)
	if err != nil {
		return err
	}
	log.Printf("Recorded edit %d (%s) in %s", id, entry.RunID, j.journal)
	return nil
}
