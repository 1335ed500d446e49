// launchkit-run executes one workflow from the command line and exports the
// rendered assets to a directory, without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/export"
	"github.com/actionplanner/launchkit/internal/pipeline"
	"github.com/actionplanner/launchkit/internal/provider"
	"github.com/actionplanner/launchkit/internal/provider/groq"
	"github.com/actionplanner/launchkit/internal/provider/openai"
	"github.com/actionplanner/launchkit/internal/storage/memory"
	"github.com/actionplanner/launchkit/internal/workflow"
)

type paramFlags map[string]string

func (p paramFlags) String() string { return fmt.Sprintf("%v", map[string]string(p)) }

func (p paramFlags) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	p[key] = value
	return nil
}

func main() {
	_ = godotenv.Load()

	var (
		workflowName = flag.String("workflow", "", "workflow to run (launch, workshop, letter)")
		configPath   = flag.String("config", "config.yaml", "path to config file")
		outDir       = flag.String("out", "./exports", "directory to export assets into")
		verbose      = flag.Bool("v", false, "log pipeline progress to stderr")
		params       = paramFlags{}
	)
	flag.Var(params, "param", "workflow parameter as key=value (repeatable)")
	flag.Parse()

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	openai.RegisterFactory()
	groq.RegisterFactory()

	providers, err := provider.NewRegistry(cfg.Providers)
	if err != nil {
		log.Fatalf("Failed to create provider registry: %v", err)
	}

	runner := pipeline.NewRunner(providers, logger)
	workflows := workflow.NewRegistry(workflow.Deps{
		Runner: runner,
		Config: cfg,
	})

	if *workflowName == "" {
		fmt.Fprintln(os.Stderr, "Usage: launchkit-run -workflow <name> -param key=value ...")
		fmt.Fprintln(os.Stderr, "\nAvailable workflows:")
		for _, def := range workflows.Definitions() {
			fmt.Fprintf(os.Stderr, "  %-10s %s (params: %s)\n",
				def.Name, def.Description, strings.Join(def.Params, ", "))
		}
		os.Exit(1)
	}

	p, err := workflows.Get(*workflowName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	for _, param := range p.Params {
		if params[param] == "" {
			log.Fatalf("workflow %q requires -param %s=...", *workflowName, param)
		}
	}

	store := memory.New()
	controller := pipeline.NewController(store, logger)

	run, err := controller.Execute(context.Background(), p, params)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	exporter := export.New(*outDir, logger)
	manifest, err := exporter.Export(run, p.Renderer)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fmt.Printf("Run %s completed (%d stages)\n", run.ID, len(run.Handoffs))
	fmt.Printf("Assets written to %s:\n", manifest.Dir)
	for _, f := range manifest.Files {
		fmt.Printf("  %s (%d bytes)\n", f.Name, f.Bytes)
	}
}
