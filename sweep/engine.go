package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// TrialPaths are the three positional artifacts handed to the engine.
type TrialPaths struct {
	Config string // run configuration, written before the call
	Log    string // engine log, appended to on failure
	Result string // result artifact; its existence is the success signal
}

// EngineOutput is what one engine invocation left behind on its standard
// streams.
type EngineOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Engine is the out-of-process simulation engine. Both calls block until the
// process exits. A non-zero exit status is reported in EngineOutput, not as
// an error; the error return is reserved for failures to run the process.
type Engine interface {
	// RunTrial simulates one run configuration.
	RunTrial(ctx context.Context, paths TrialPaths) (EngineOutput, error)
	// Inventory writes the size/file inventory of a workflow to inventoryPath.
	Inventory(ctx context.Context, workflowPath, inventoryPath string) (EngineOutput, error)
}

// EngineConfig locates the Java runtime and engine classes.
type EngineConfig struct {
	JavaHome    string `yaml:"java_home"`
	Classpath   string `yaml:"classpath"`
	MainClass   string `yaml:"main_class"`
	HelperClass string `yaml:"helper_class"`
}

// JavaEngine runs the engine as `java -cp <classpath> <class> args...`.
type JavaEngine struct {
	cfg EngineConfig
	env []string
}

// NewJavaEngine builds a JavaEngine. The child environment is the current
// one with JAVA_HOME set and $JAVA_HOME/bin prepended to PATH.
func NewJavaEngine(cfg EngineConfig) *JavaEngine {
	return &JavaEngine{cfg: cfg, env: engineEnv(os.Environ(), cfg.JavaHome)}
}

func engineEnv(base []string, javaHome string) []string {
	if javaHome == "" {
		return base
	}
	env := make([]string, 0, len(base)+2)
	path := ""
	for _, kv := range base {
		switch {
		case strings.HasPrefix(kv, "JAVA_HOME="):
			continue
		case strings.HasPrefix(kv, "PATH="):
			path = strings.TrimPrefix(kv, "PATH=")
			continue
		}
		env = append(env, kv)
	}
	bin := filepath.Join(javaHome, "bin")
	if path != "" {
		bin += string(os.PathListSeparator) + path
	}
	return append(env, "JAVA_HOME="+javaHome, "PATH="+bin)
}

func (e *JavaEngine) javaBinary() string {
	if e.cfg.JavaHome == "" {
		return "java"
	}
	return filepath.Join(e.cfg.JavaHome, "bin", "java")
}

// RunTrial implements Engine.
func (e *JavaEngine) RunTrial(ctx context.Context, paths TrialPaths) (EngineOutput, error) {
	return e.run(ctx, e.cfg.MainClass, paths.Config, paths.Log, paths.Result)
}

// Inventory implements Engine.
func (e *JavaEngine) Inventory(ctx context.Context, workflowPath, inventoryPath string) (EngineOutput, error) {
	return e.run(ctx, e.cfg.HelperClass, workflowPath, inventoryPath)
}

func (e *JavaEngine) run(ctx context.Context, class string, args ...string) (EngineOutput, error) {
	if class == "" {
		return EngineOutput{}, configErrorf("engine class not configured")
	}
	argv := append([]string{"-cp", e.cfg.Classpath, class}, args...)
	cmd := exec.CommandContext(ctx, e.javaBinary(), argv...)
	cmd.Env = e.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := EngineOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return out, fmt.Errorf("running %s: %w", class, err)
	}
	return out, nil
}
