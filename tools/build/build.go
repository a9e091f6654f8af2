// Command build cross-compiles the mcarch binary for every release target,
// stamping the version, help URL and telemetry key into internal/environment.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mcarch/mcarch-editor/internal/constants"
)

const environmentPackage = "github.com/mcarch/mcarch-editor/internal/environment"

// stamp binds a build input to the package variable it overrides.
type stamp struct {
	envVar   string
	variable string
	required bool
}

var stamps = []stamp{
	{envVar: "POSTHOG_API_KEY", variable: "posthogAPIKeyDefault", required: true},
	{envVar: "MCARCH_VERSION", variable: "appVersion", required: true},
	{envVar: "MCARCH_HELP_URL", variable: "helpURL"},
}

var buildTargets = []buildTarget{
	{goos: "darwin", goarch: "amd64"},
	{goos: "darwin", goarch: "arm64"},
	{goos: "linux", goarch: "amd64"},
	{goos: "linux", goarch: "arm64"},
	{goos: "windows", goarch: "amd64"},
	{goos: "windows", goarch: "arm64"},
}

type buildTarget struct {
	goos   string
	goarch string
}

func (target buildTarget) String() string {
	return target.goos + "/" + target.goarch
}

type commandRunner interface {
	Run(*exec.Cmd) error
}

type execRunner struct{}

func (execRunner) Run(command *exec.Cmd) error {
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	return command.Run()
}

type buildTool struct {
	repoRoot string
	baseEnv  []string
	goBinary string
	runner   commandRunner
	readEnv  func(path string) (map[string]string, error)
	logger   *log.Logger
}

var getWorkingDirectory = os.Getwd

func newBuildTool() (*buildTool, error) {
	workingDirectory, err := getWorkingDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	repoRoot, err := findRepoRoot(workingDirectory)
	if err != nil {
		return nil, err
	}
	return &buildTool{
		repoRoot: repoRoot,
		baseEnv:  os.Environ(),
		goBinary: "go",
		runner:   execRunner{},
		readEnv:  readEnvFile,
		logger:   log.New(os.Stdout, "build: ", 0),
	}, nil
}

func main() {
	tool, err := newBuildTool()
	if err == nil {
		err = tool.run()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (tool *buildTool) run() error {
	envFile := filepath.Join(tool.repoRoot, ".env")
	tool.logger.Printf("loading %s", envFile)
	fileValues, err := tool.readEnv(envFile)
	if err != nil {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	env := mergeEnv(tool.baseEnv, fileValues)
	if missing := missingStamps(env); len(missing) > 0 {
		return fmt.Errorf("missing build input(s): %s\nset them in the environment or in ./.env", strings.Join(missing, " "))
	}

	ldflags := ldflagsFor(env)
	for _, target := range buildTargets {
		tool.logger.Printf("building %s", target)
		if err := tool.build(target, env, ldflags); err != nil {
			return err
		}
	}
	tool.logger.Printf("build complete")
	return nil
}

func (tool *buildTool) build(target buildTarget, env map[string]string, ldflags string) error {
	outputDir := filepath.Join(tool.repoRoot, "build", target.goos, target.goarch)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}

	output := filepath.Join(outputDir, constants.CommandName)
	if target.goos == "windows" {
		output += ".exe"
	}

	targetEnv := make(map[string]string, len(env)+3)
	for key, value := range env {
		targetEnv[key] = value
	}
	targetEnv["GOOS"] = target.goos
	targetEnv["GOARCH"] = target.goarch
	targetEnv["CGO_ENABLED"] = "0"

	command := exec.Command(tool.goBinary, "build", "-trimpath", "-ldflags", ldflags, "-o", output, ".")
	command.Dir = tool.repoRoot
	command.Env = envSlice(targetEnv)

	tool.logger.Printf("output %s", output)
	if err := tool.runner.Run(command); err != nil {
		return fmt.Errorf("build %s: %w", target, err)
	}
	return nil
}

// readEnvFile treats a missing file as empty.
func readEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return godotenv.Parse(bytes.NewReader(data))
}

func findRepoRoot(start string) (string, error) {
	for current := start; ; current = filepath.Dir(current) {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		if filepath.Dir(current) == current {
			return "", fmt.Errorf("no go.mod above %s; run from the repository", start)
		}
	}
}

// mergeEnv fills the stamp inputs the process environment lacks from .env.
func mergeEnv(base []string, fileValues map[string]string) map[string]string {
	env := make(map[string]string, len(base))
	for _, entry := range base {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}
	for _, stamp := range stamps {
		if _, exists := env[stamp.envVar]; exists {
			continue
		}
		if value, ok := fileValues[stamp.envVar]; ok {
			env[stamp.envVar] = value
		}
	}
	return env
}

func missingStamps(env map[string]string) []string {
	var missing []string
	for _, stamp := range stamps {
		if stamp.required && env[stamp.envVar] == "" {
			missing = append(missing, stamp.envVar)
		}
	}
	return missing
}

func ldflagsFor(env map[string]string) string {
	flags := []string{"-s", "-w"}
	for _, stamp := range stamps {
		value := env[stamp.envVar]
		if value == "" {
			continue
		}
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", environmentPackage, stamp.variable, value))
	}
	return strings.Join(flags, " ")
}

func envSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	entries := make([]string, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, key+"="+env[key])
	}
	return entries
}
