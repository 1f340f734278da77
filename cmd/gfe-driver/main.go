// Command gfe-driver runs the Aging2 workload driver or the RPC server
// against a pluggable graph library.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cwida/gfe-driver/aging"
	"github.com/cwida/gfe-driver/gfeconfig"
	"github.com/cwida/gfe-driver/gfelog"
	"github.com/cwida/gfe-driver/library"
	"github.com/cwida/gfe-driver/library/refgraph"
	"github.com/cwida/gfe-driver/resultstore"
	"github.com/cwida/gfe-driver/rpcserver"
)

var (
	showHelp    = flag.Bool("help", false, "")
	runVerbose  = flag.Bool("verbose", false, "")
	configPath  = flag.String("config", "", "path to a TOML settings file")
	storagePath = flag.String("library-path", "", "on-disk path for the reference library's backing store (blank = in-memory)")
	directed    = flag.Bool("directed", true, "treat the graph as directed")
	resultPath  = flag.String("result-store", "", "path to append the experiment's result row to (aging mode only, blank = skip)")
)

const helpMessage = `
gfe-driver replays a recorded update log against a graph library, or
exposes the library over an RPC connection.

Usage: gfe-driver [options] <command>

  aging   Replay the configured graphlog and report throughput/latency.
  serve   Start the RPC server and block until shutdown.

      -config       =string   Path to a TOML settings file.
      -library-path =string   On-disk path for the reference library's store.
      -directed     (flag)    Treat the graph as directed (default true).
      -result-store =string   Append the aging result row to this path.
      -verbose      (flag)    Enable debug-level logging.
  -h, -help         (flag)    Show help message
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	if *runVerbose {
		gfelog.Verbose = true
		gfelog.SetLogMode(gfelog.DebugMode)
	}

	cfg := gfeconfig.Default()
	if *configPath != "" {
		loaded, err := gfeconfig.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	gfelog.Configure(cfg.Logging)

	lib, err := refgraph.Open(refgraph.Config{Path: *storagePath, Directed: *directed})
	if err != nil {
		fatal(err)
	}

	command := strings.ToLower(flag.Args()[0])
	switch command {
	case "aging":
		err = runAging(cfg, lib)
	case "serve":
		err = runServe(cfg, lib)
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}
}

func runAging(cfg gfeconfig.Settings, lib library.GraphLibrary) error {
	if cfg.Aging.GraphlogPath == "" {
		return gfelog.Newf(gfelog.Config, "aging mode requires [aging].graphlog to be set")
	}

	master, err := aging.NewAgingMaster(aging.Params{
		Library:        lib,
		GraphlogPath:   cfg.Aging.GraphlogPath,
		NumThreads:     cfg.Aging.Threads,
		Granularity:    cfg.Aging.Granularity,
		BuildFrequency: time.Duration(cfg.Aging.BuildFrequencyMs) * time.Millisecond,
		ReportsPerOps:  cfg.Aging.ReportsPerOps,
		MeasureLatency: cfg.Aging.MeasureLatency,
	})
	if err != nil {
		return err
	}
	defer master.Close()

	result, err := master.Execute()
	if err != nil {
		return err
	}

	if *resultPath != "" {
		rec := resultstore.NewRecorder(*resultPath)
		row := resultstore.NewResultRow(lib.Descriptor().Name, time.Now(), result)
		if err := rec.Append(row); err != nil {
			return err
		}
	}
	return nil
}

func runServe(cfg gfeconfig.Settings, lib library.GraphLibrary) error {
	srv := rpcserver.NewServer(lib, cfg.Server.LibraryName, cfg.Server.Port, cfg.Server.TerminateOnLastConnection)
	return srv.ListenAndServe()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
