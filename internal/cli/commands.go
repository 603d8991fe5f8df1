package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spachava753/assetpipe/internal/livereload"
	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/scaffold"
	"github.com/spachava753/assetpipe/internal/watch"
)

// DefaultPipeline is run by `build` when no pipeline is named.
const DefaultPipeline = "default"

func runBuild(ctx context.Context, g globals, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(g.stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}
	if fs.NArg() > 1 {
		return usageError("build takes at most one pipeline name")
	}
	name := DefaultPipeline
	if fs.NArg() == 1 {
		name = fs.Arg(0)
	}

	a, err := loadApp(g)
	if err != nil {
		return failure("%v", err)
	}

	result, err := a.runner.Run(ctx, name)
	if result != nil {
		printResult(g, result)
	}
	if err != nil {
		var pe *models.PipelineError
		if errors.As(err, &pe) {
			return failure("build failed at task %q: %v", pe.TaskID, pe.Err)
		}
		return failure("%v", err)
	}
	return nil
}

func printResult(g globals, r *models.RunResult) {
	tw := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	for _, t := range r.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2fs\n", t.ID, t.Kind, t.Status, t.DurationSec)
	}
	tw.Flush()

	status := "succeeded"
	if !r.Succeeded {
		status = "failed"
	}
	fmt.Fprintf(g.stdout, "\nPipeline %s %s in %.2fs\n", r.Pipeline, status, r.TotalDurationSec)
}

func runWatch(ctx context.Context, g globals, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(g.stderr)
	lrAddr := fs.String("livereload", "", "Serve LiveReload on this address (e.g. ':35729'). Empty disables it.")
	debounce := fs.Duration("debounce", watch.DefaultDebounce, "Wait this long for further changes before rebuilding.")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}
	if fs.NArg() > 0 {
		return usageError("watch takes no arguments")
	}

	a, err := loadApp(g)
	if err != nil {
		return failure("%v", err)
	}
	bindings, err := a.watchBindings()
	if err != nil {
		return failure("%v", err)
	}
	if len(bindings) == 0 {
		return failure("no watch bindings configured")
	}

	dispatch := func(ctx context.Context, b models.WatchBinding) error {
		_, err := a.runner.RunTargets(ctx, "watch:"+b.Name, b.Targets)
		return err
	}

	opts := []watch.Option{watch.WithRoot(a.cfg.SourceRoot), watch.WithDebounce(*debounce)}

	var lr *livereload.Server
	if *lrAddr != "" {
		lr = livereload.New()
		opts = append(opts, watch.OnDispatched(func([]string) { lr.Reload("/") }))
	}

	w, err := watch.New(bindings, dispatch, opts...)
	if err != nil {
		return failure("%v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		defer cancel()
		return w.Watch(gctx)
	})

	if lr != nil {
		srv := &http.Server{Addr: *lrAddr, Handler: lr.Handler()}
		grp.Go(func() error {
			slog.Info("livereload listening", "addr", *lrAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("livereload server: %w", err)
			}
			return nil
		})
		grp.Go(func() error {
			<-gctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := grp.Wait(); err != nil {
		return failure("%v", err)
	}
	return nil
}

func runScaffold(g globals, args []string) error {
	if len(args) != 1 {
		return usageError("usage: assetpipe scaffold <name>")
	}

	a, err := loadApp(g)
	if err != nil {
		return failure("%v", err)
	}
	gen, err := scaffold.New(a.cfg.Scaffold, a.paths)
	if err != nil {
		return failure("%v", err)
	}

	stub, err := gen.Create(args[0])
	if err != nil {
		var partial *models.PartialScaffoldFailure
		if errors.As(err, &partial) {
			for _, f := range partial.Created {
				fmt.Fprintf(g.stderr, "left behind: %s\n", f)
			}
		}
		return failure("scaffold %q: %v", args[0], err)
	}

	fmt.Fprintf(g.stdout, "created %s\ncreated %s\nupdated %s\n", stub.Template, stub.Style, stub.Stylesheet)
	return nil
}

func runTasks(g globals, args []string) error {
	if len(args) > 0 {
		return usageError("tasks takes no arguments")
	}

	a, err := loadApp(g)
	if err != nil {
		return failure("%v", err)
	}

	tw := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tKIND\tOUTPUT")
	for _, t := range a.registry.Tasks() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID(), t.Kind(), t.Output())
	}

	fmt.Fprintln(tw, "\nPIPELINE\tSTEPS\t")
	for _, p := range a.registry.Pipelines() {
		fmt.Fprintf(tw, "%s\t%s\t\n", p.Name, strings.Join(p.Steps, ", "))
	}

	if len(a.cfg.Watch) > 0 {
		fmt.Fprintln(tw, "\nWATCH\tFILES\tTARGETS")
		for _, w := range a.cfg.Watch {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", w.Name, strings.Join(w.Files, ", "), strings.Join(w.Targets, ", "))
		}
	}
	return tw.Flush()
}
