// jpamb CLI - runs benchmark methods on concrete inputs and reports the
// outcome.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/jpamb/interpreter/jvm"
	"github.com/jpamb/interpreter/runlog"
	"github.com/jpamb/interpreter/server"
	"github.com/jpamb/interpreter/suite"
	"github.com/jpamb/interpreter/vm"
)

func main() {
	workspace := flag.String("workspace", ".", "Workspace directory (jpamb.toml is searched upward from here)")
	budget := flag.Int("budget", 0, "Step budget per run (0 uses the workspace or built-in default)")
	db := flag.String("db", "", "Run-log database path (overrides the workspace setting)")
	noLog := flag.Bool("no-db", false, "Do not record runs in the run-log database")
	serveMode := flag.Bool("serve", false, "Start the interpretation server (Connect HTTP/JSON)")
	servePort := flag.Int("port", 4567, "Server port (used with --serve)")
	verbose := flag.Int("v", 0, "Log verbosity (0 = quiet)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jpamb [options] <method> [inputs]\n\n")
		fmt.Fprintf(os.Stderr, "Runs one benchmark method on concrete inputs and prints its outcome:\n")
		fmt.Fprintf(os.Stderr, "ok, divide by zero, assertion error, out of bounds, null pointer, or *\n")
		fmt.Fprintf(os.Stderr, "when the step budget is exhausted.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  jpamb 'jpamb.cases.Simple.divideByN:(I)I' '(0)'\n")
		fmt.Fprintf(os.Stderr, "  jpamb 'jpamb.cases.Arrays.first:([I)I' '([I:1,2,3])'\n")
		fmt.Fprintf(os.Stderr, "  jpamb --serve --port 8080\n")
	}
	flag.Parse()

	commonlog.Configure(*verbose, nil)

	manifest, err := suite.FindAndLoad(*workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if manifest == nil {
		manifest = suite.Default(*workspace)
	}

	image, err := suite.Open(manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	steps := manifest.Interpreter.Budget
	if *budget > 0 {
		steps = *budget
	}
	interp := vm.New(image, vm.WithBudget(steps))

	if *serveMode {
		opts := []server.ServerOption{server.WithBudget(steps)}
		if !*noLog {
			path := manifest.RunlogPath()
			if *db != "" {
				path = *db
			}
			runs, err := runlog.Open(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer runs.Close()
			opts = append(opts, server.WithRunlog(runs))
		}

		srv := server.New(image, opts...)
		addr := fmt.Sprintf(":%d", *servePort)
		if err := srv.ListenAndServe(addr); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		flag.Usage()
		os.Exit(2)
	}

	method, err := jvm.ParseAbsMethodID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	inputSpec := "()"
	if len(args) == 2 {
		inputSpec = args[1]
	}
	inputs, err := jvm.ParseInputs(inputSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	start := time.Now()
	res, err := interp.Run(method, inputs)
	elapsed := time.Since(start)
	if err != nil {
		code := 1
		if errors.Is(err, vm.ErrUnknownInstruction) {
			code = 3
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(code)
	}

	if !*noLog {
		recordRun(manifest, *db, args[0], inputSpec, res, elapsed)
	}

	fmt.Println(res.Outcome)
}

// recordRun appends the run to the workspace run log. Failures are reported
// but never change the printed outcome or exit status.
func recordRun(manifest *suite.Manifest, override, method, inputs string, res *vm.Result, elapsed time.Duration) {
	path := manifest.RunlogPath()
	if override != "" {
		path = override
	}
	runs, err := runlog.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open run log: %v\n", err)
		return
	}
	defer runs.Close()

	rec := &runlog.Run{
		Method:   method,
		Inputs:   inputs,
		Outcome:  res.Outcome.String(),
		Steps:    res.Steps,
		Duration: elapsed,
	}
	if err := runs.Record(rec); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot record run: %v\n", err)
	}
}
