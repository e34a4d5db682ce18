package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave/internal/taskfile"
	"github.com/taskweave/taskweave/pkg/models"
)

var (
	runFile     string
	runOffline  bool
	runWatch    bool
	runPriority string
)

var runCmd = &cobra.Command{
	Use:   "run [task description]",
	Short: "Execute a task",
	Long: `Run a task to completion: reason about it, decompose it into steps,
resolve the dependency graph, and execute the resulting plan.

The task is given either as command-line arguments or as a YAML task
file via --file. Task files may declare explicit steps, which bypass
keyword decomposition.

With --watch (requires --file) the task re-runs whenever the file
changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFile == "" && len(args) == 0 {
			return fmt.Errorf("provide a task description or --file")
		}
		if runWatch && runFile == "" {
			return fmt.Errorf("--watch requires --file")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runWatch {
			return watchAndRun(ctx, runFile)
		}
		return runOnce(ctx, args)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "YAML task file")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "Use the built-in heuristic reasoning engine (no API calls)")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Re-run when the task file changes")
	runCmd.Flags().StringVar(&runPriority, "priority", "", "Task priority (low, normal, high)")
}

func runOnce(ctx context.Context, args []string) error {
	task, explicit, err := loadTask(args)
	if err != nil {
		return err
	}

	o, cleanup, err := buildOrchestrator(explicit)
	if err != nil {
		return err
	}
	defer cleanup()

	result := o.ExecuteTask(ctx, task)
	printResult(task, result)

	if !result.Success {
		return fmt.Errorf("task failed")
	}
	return nil
}

// loadTask builds the task from --file or the argument list. The second
// return value is the explicit step list, or nil when the task should
// go through decomposition.
func loadTask(args []string) (*models.Task, []*models.Step, error) {
	if runFile != "" {
		f, err := taskfile.Load(runFile)
		if err != nil {
			return nil, nil, err
		}
		task := f.Task()
		if runPriority != "" {
			task.Priority = models.Priority(runPriority)
		}
		if !task.Priority.Valid() {
			return nil, nil, fmt.Errorf("invalid priority %q", task.Priority)
		}
		return task, f.ExplicitSteps(), nil
	}

	priority := models.PriorityNormal
	if runPriority != "" {
		priority = models.Priority(runPriority)
		if !priority.Valid() {
			return nil, nil, fmt.Errorf("invalid priority %q", runPriority)
		}
	}
	return &models.Task{
		ID:          uuid.NewString(),
		Description: strings.Join(args, " "),
		Priority:    priority,
		CreatedAt:   time.Now(),
	}, nil, nil
}

// watchAndRun re-executes the task file on every change, debounced so
// editor save sequences trigger a single run.
func watchAndRun(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops
	// a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	run := func() {
		if err := runOnce(ctx, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	run()
	fmt.Printf("\nWatching %s for changes (Ctrl-C to stop)\n", path)

	var debounce *time.Timer
	runs := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-runs:
			run()
			fmt.Printf("\nWatching %s for changes (Ctrl-C to stop)\n", path)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(event.Name)
			if abs != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case runs <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}
