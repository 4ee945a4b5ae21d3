package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// suites maps a short name to the packages it covers.
var suites = map[string][]string{
	"all":      {"./..."},
	"chart":    {"./internal/domain/...", "./internal/chart/..."},
	"adapters": {"./internal/adapters/..."},
	"app":      {"./internal/app/...", "./config/...", "./cmd/..."},
}

var (
	verbose    = flag.Bool("v", false, "verbose output")
	short      = flag.Bool("short", false, "run only short tests")
	race       = flag.Bool("race", false, "enable the race detector")
	cover      = flag.Bool("cover", false, "report coverage")
	suite      = flag.String("suite", "all", "package set: all, chart, adapters, app")
	timeout    = flag.Duration("timeout", 5*time.Minute, "test timeout")
	testRegexp = flag.String("run", "", "run only tests matching the regular expression")
)

func main() {
	flag.Parse()

	pkgs, ok := suites[*suite]
	if !ok {
		fmt.Printf("Unknown suite %q\n", *suite)
		os.Exit(2)
	}

	// Build test command
	args := []string{"test"}

	if *verbose {
		args = append(args, "-v")
	}
	if *short {
		args = append(args, "-short")
	}
	if *race {
		args = append(args, "-race")
	}
	if *cover {
		args = append(args, "-cover")
	}

	args = append(args, fmt.Sprintf("-timeout=%s", timeout.String()))

	if *testRegexp != "" {
		args = append(args, fmt.Sprintf("-run=%s", *testRegexp))
	}

	args = append(args, pkgs...)

	cmd := exec.Command("go", args...)

	// Quiet logging for test runs
	env := os.Environ()
	env = append(env, "LOG_LEVEL=ERROR", "LOG_FILE=", "REDIS_ADDR=")
	cmd.Env = env

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Printf("Running tests with args: %s\n", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Printf("Error running tests: %v\n", err)
		os.Exit(1)
	}
}
