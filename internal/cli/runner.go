package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/taskdeck/internal/model"
	"github.com/idilsaglam/taskdeck/internal/state"
	"github.com/idilsaglam/taskdeck/internal/task"
	"github.com/idilsaglam/taskdeck/internal/tui"
	"github.com/idilsaglam/taskdeck/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool // list grouped by pending/done
}

// Runner dispatches subcommands against one explicitly-injected manager;
// there is no package-level state.
type Runner struct {
	mgr *task.Manager
	opt Options
}

func NewRunner(mgr *task.Manager, opt Options) *Runner {
	return &Runner{mgr: mgr, opt: opt}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
// The pending debounced write is flushed before returning, since the process
// is about to exit.
func (r *Runner) Run(args []string) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]
	defer r.mgr.Flush()

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return r.doList()

	case "tui":
		if err := tui.Run(r.mgr); err != nil {
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0

	case "add":
		return r.doAdd(a)

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: taskdeck done <index>")
			return 2
		}
		return r.doToggle(a[0])

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: taskdeck rm <index>")
			return 2
		}
		return r.doRemove(a[0])

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: taskdeck edit <index> <title...>")
			return 2
		}
		return r.doEdit(a[0], strings.Join(a[1:], " "))

	case "clear":
		return r.doClearCompleted()

	case "undo":
		return r.doUndo()

	case "search":
		if len(a) == 0 {
			ui.Fail("usage: taskdeck search <query...>")
			return 2
		}
		return r.doSearch(strings.Join(a, " "))

	case "stats":
		return r.doStats()

	case "export":
		path := ""
		if len(a) > 0 {
			path = a[0]
		}
		return r.doExport(path)

	case "import":
		if len(a) != 1 {
			ui.Fail("usage: taskdeck import <file>")
			return 2
		}
		return r.doImport(a[0])
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`taskdeck - todo list with a persistent state store

Usage:
  taskdeck [flags] <subcommand> [args]

Subcommands:
  add [-p low|medium|high] <title...>   Add a new task
  ls                                    List tasks
  tui                                   Open the interactive list
  done <index>                          Toggle done for task at 1-based index
  rm <index>                            Remove task at 1-based index
  edit <index> <title...>               Retitle task at 1-based index
  clear                                 Remove every completed task
  undo                                  Revert the last change
  search <query...>                     Case-insensitive title search
  stats                                 Show counters and storage usage
  export [file]                         Write a backup archive (stdout if no file)
  import <file>                         Restore from a backup archive

Examples:
  taskdeck add "Buy milk"
  taskdeck add -p high "File taxes"
  taskdeck done 2
  taskdeck undo
`)
}

// -------------- subcommand impls ----------------

func (r *Runner) doList() int {
	st := r.mgr.State()
	tasks := task.SortTasks(st.Tasks, st.Settings.SortField, st.Settings.SortAsc)

	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(ui.Current().Title, "Tasks"),
		ui.C(ui.Current().Success, ui.Current().SymDone), st.Stats.Completed,
		ui.C(ui.Current().Pending, ui.Current().SymUnchecked), st.Stats.Active,
		ui.C(ui.Current().Accent, "Total"), st.Stats.Total,
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(ui.Current().Muted,
		ui.ProgressBar(st.Stats.Completed, st.Stats.Total, 28)))
	lines = append(lines, "")

	if r.opt.Group {
		lines = append(lines, groupLines(tasks)...)
	} else {
		lines = append(lines, flatLines(tasks)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Muted, "Tip: add with `taskdeck add \"Buy milk\"`"))
	ui.Panel(lines)
	return 0
}

func (r *Runner) doAdd(args []string) int {
	prio := model.PriorityMedium
	if len(args) >= 2 && args[0] == "-p" {
		prio = model.Priority(strings.ToLower(args[1]))
		args = args[2:]
	}
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		ui.Fail("usage: taskdeck add [-p low|medium|high] <title...>")
		return 2
	}

	t, err := r.mgr.Create(task.CreateInput{Title: title, Priority: prio})
	if err != nil {
		ui.Fail("add: " + err.Error())
		var verr *task.ValidationError
		if errors.As(err, &verr) {
			return 2
		}
		return 1
	}
	ui.OK("added " + shortTitle(t.Title))
	r.warnMemoryOnly()
	return 0
}

func (r *Runner) doToggle(arg string) int {
	id, code := r.resolveIndex(arg)
	if code != 0 {
		return code
	}
	t, err := r.mgr.Toggle(id)
	if err != nil {
		ui.Fail("done: " + err.Error())
		return 1
	}
	if t.Completed {
		ui.OK("completed " + shortTitle(t.Title))
	} else {
		ui.OK("reopened " + shortTitle(t.Title))
	}
	r.warnMemoryOnly()
	return 0
}

func (r *Runner) doRemove(arg string) int {
	id, code := r.resolveIndex(arg)
	if code != 0 {
		return code
	}
	t, err := r.mgr.Delete(id)
	if err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	ui.OK("removed " + shortTitle(t.Title))
	r.warnMemoryOnly()
	return 0
}

func (r *Runner) doEdit(arg, title string) int {
	id, code := r.resolveIndex(arg)
	if code != 0 {
		return code
	}
	t, err := r.mgr.Update(id, task.Patch{Title: &title})
	if err != nil {
		ui.Fail("edit: " + err.Error())
		var verr *task.ValidationError
		if errors.As(err, &verr) {
			return 2
		}
		return 1
	}
	ui.OK("updated " + shortTitle(t.Title))
	return 0
}

func (r *Runner) doClearCompleted() int {
	removed, err := r.mgr.ClearCompleted()
	if err != nil {
		ui.Fail("clear: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("cleared %d completed task(s)", len(removed)))
	return 0
}

func (r *Runner) doUndo() int {
	if err := r.mgr.Undo(); err != nil {
		if errors.Is(err, state.ErrNothingToUndo) {
			ui.Fail("undo: nothing to undo")
			return 1
		}
		ui.Fail("undo: " + err.Error())
		return 1
	}
	ui.OK("undone")
	return 0
}

func (r *Runner) doSearch(query string) int {
	hits := r.mgr.Search(query)
	if len(hits) == 0 {
		fmt.Println(ui.C(ui.Current().Muted, "no matches"))
		return 0
	}
	ui.Panel(flatLines(hits))
	return 0
}

func (r *Runner) doStats() int {
	st := r.mgr.State()
	lines := []string{
		ui.C(ui.Current().Title, "Stats"),
		fmt.Sprintf("total %d  active %d  completed %d",
			st.Stats.Total, st.Stats.Active, st.Stats.Completed),
		fmt.Sprintf("created today %d  completed today %d",
			st.Stats.CreatedToday, st.Stats.CompletedToday),
	}
	if used, avail, err := r.mgr.StorageUsage(); err == nil {
		lines = append(lines, fmt.Sprintf("storage %s used, %s free",
			byteCount(used), byteCount(avail)))
	}
	ui.Panel(lines)
	return 0
}

func (r *Runner) doExport(path string) int {
	b, err := r.mgr.ExportJSON()
	if err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	if path == "" {
		fmt.Println(string(b))
		return 0
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	ui.OK("exported to " + path)
	return 0
}

func (r *Runner) doImport(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		ui.Fail("import: " + err.Error())
		return 1
	}
	n, err := r.mgr.Import(b)
	if err != nil {
		ui.Fail("import: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("imported %d task(s)", n))
	return 0
}

// -------------- helpers ----------------

// resolveIndex maps a 1-based display index onto a task id.
func (r *Runner) resolveIndex(arg string) (id string, exitCode int) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		ui.Fail("not a number: " + arg)
		return "", 2
	}
	tasks := r.mgr.Tasks()
	if n < 1 || n > len(tasks) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(tasks), n))
		fmt.Fprintln(os.Stderr, ui.C(ui.Current().Muted, "Hint: run `taskdeck ls` to see valid indexes"))
		return "", 2
	}
	return tasks[n-1].ID, 0
}

func (r *Runner) warnMemoryOnly() {
	if r.mgr.MemoryOnly() {
		fmt.Fprintln(os.Stderr, ui.C(ui.Current().Pending,
			"note: storage unavailable, changes will not survive this session"))
	}
}

func shortTitle(s string) string {
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}

func byteCount(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func flatLines(tasks []model.Task) []string {
	if len(tasks) == 0 {
		return []string{ui.C(ui.Current().Muted, "no tasks")}
	}
	out := make([]string, 0, len(tasks))
	for i, t := range tasks {
		idx := fmt.Sprintf("%2d.", i+1)
		box := ui.Current().BoxUnchecked
		color := ui.Current().Muted
		if t.Completed {
			box, color = ui.Current().BoxChecked, ui.Current().Success
		}
		title := t.Title
		if len(title) > 80 {
			title = title[:77] + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s %s",
			ui.C(ui.Dim(), idx), ui.C(color, box),
			ui.C(ui.PriorityColor(string(t.Priority)), priorityMark(t.Priority)), title))
	}
	return out
}

func priorityMark(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!"
	case model.PriorityLow:
		return "·"
	}
	return " "
}

func groupLines(tasks []model.Task) []string {
	var pend, done []model.Task
	for _, t := range tasks {
		if t.Completed {
			done = append(done, t)
		} else {
			pend = append(pend, t)
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
