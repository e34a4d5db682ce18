package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// RegisterBuiltins adds the built-in tools to a registry. workDir
// anchors relative paths for the file tools and the shell.
func RegisterBuiltins(r *Registry, workDir string) error {
	builtins := []Definition{
		{
			Name:        "shell",
			Description: "Execute a shell command and return combined output",
			Execute:     shellTool(workDir),
			Retryable:   false,
		},
		{
			Name:        "read_file",
			Description: "Read a file and return its contents",
			Execute:     readFileTool(workDir),
			Retryable:   true,
		},
		{
			Name:        "write_file",
			Description: "Write content to a file, creating parent directories",
			Execute:     writeFileTool(workDir),
			Retryable:   true,
		},
		{
			Name:        "sleep",
			Description: "Sleep for the given duration (useful for demos and tests)",
			Execute:     sleepTool,
			Retryable:   true,
		},
	}

	for _, def := range builtins {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func shellTool(workDir string) ExecuteFunc {
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		command, ok := stringInput(inputs, "command")
		if !ok {
			return nil, fmt.Errorf("shell: missing command input")
		}

		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = workDir
		out, err := cmd.CombinedOutput()
		if err != nil {
			return nil, fmt.Errorf("shell: %w: %s", err, strings.TrimSpace(string(out)))
		}
		return string(out), nil
	}
}

func readFileTool(workDir string) ExecuteFunc {
	return func(_ context.Context, inputs map[string]any) (any, error) {
		path, ok := stringInput(inputs, "path")
		if !ok {
			return nil, fmt.Errorf("read_file: missing path input")
		}

		content, err := os.ReadFile(resolvePath(workDir, path))
		if err != nil {
			return nil, fmt.Errorf("read_file: %w", err)
		}
		return string(content), nil
	}
}

func writeFileTool(workDir string) ExecuteFunc {
	return func(_ context.Context, inputs map[string]any) (any, error) {
		path, ok := stringInput(inputs, "path")
		if !ok {
			return nil, fmt.Errorf("write_file: missing path input")
		}
		content, _ := stringInput(inputs, "content")

		full := resolvePath(workDir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return nil, fmt.Errorf("write_file: %w", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("write_file: %w", err)
		}
		return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
	}
}

func sleepTool(ctx context.Context, inputs map[string]any) (any, error) {
	raw, ok := stringInput(inputs, "duration")
	if !ok {
		return nil, fmt.Errorf("sleep: missing duration input")
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("sleep: %w", err)
	}

	select {
	case <-time.After(d):
		return fmt.Sprintf("slept %s", d), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func stringInput(inputs map[string]any, key string) (string, bool) {
	v, ok := inputs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func resolvePath(workDir, path string) string {
	if filepath.IsAbs(path) || workDir == "" {
		return path
	}
	return filepath.Join(workDir, path)
}
