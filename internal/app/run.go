package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/vk/chiplettrace/internal/ctxlog"
	"github.com/vk/chiplettrace/internal/generator"
	"github.com/vk/chiplettrace/internal/placement"
	"github.com/vk/chiplettrace/internal/report"
	"github.com/vk/chiplettrace/internal/trace"
	"github.com/vk/chiplettrace/internal/verifier"
)

// Run executes the main application logic based on the app's configuration.
// A deadlock is reported through logs and diagnostics; it is only an error
// in strict mode.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.")

	var (
		ft  *trace.FullTrace
		err error
	)
	if a.config.CheckReportPath != "" {
		ctx = ctxlog.With(ctx, "report", a.config.CheckReportPath)
		ft, err = a.readReport(ctx)
	} else {
		ctx = ctxlog.With(ctx, "placement", a.config.PlacementPath)
		ft, err = a.generate(ctx)
	}
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	a.checkMatching(ctx, ft)
	res := verifier.Verify(ctx, ft)
	stats := verifier.EliminatePairs(ft)
	logger.Debug("Pair elimination finished.", "eliminated", stats.Eliminated, "remaining", stats.Remaining)

	if res.Feasible {
		logger.Info("Trace verified.", "operations", res.Executed, "feasible", true)
	} else if err := res.WriteDiagnostics(a.logW); err != nil {
		return fmt.Errorf("failed to write deadlock diagnostics: %w", err)
	}

	if a.config.CheckReportPath == "" {
		if err := a.writeReport(ctx, ft); err != nil {
			return err
		}
	}

	logger.Debug("App.Run method finished.")
	if !res.Feasible && a.config.Strict {
		return ErrDeadlock
	}
	return nil
}

func (a *App) generate(ctx context.Context) (*trace.FullTrace, error) {
	logger := ctxlog.FromContext(ctx)

	tree, err := a.loader.Load(ctx, a.config.PlacementPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load placement: %w", err)
	}

	mesh := tree.Mesh
	if a.config.MeshWidth > 0 {
		mesh.Width = a.config.MeshWidth
	}
	if a.config.MeshHeight > 0 {
		mesh.Height = a.config.MeshHeight
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	if mesh != tree.Mesh {
		logger.Debug("Mesh overridden.", "from", meshString(tree.Mesh), "to", meshString(mesh))
		tree = tree.WithMesh(mesh)
	}

	logger.Info("Placement loaded.", "network", tree.Network.Name, "layers", len(tree.Network.Layers()), "mesh", meshString(mesh))
	return generator.Generate(ctx, tree), nil
}

func (a *App) readReport(ctx context.Context) (*trace.FullTrace, error) {
	f, err := os.Open(a.config.CheckReportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	ft, err := report.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", a.config.CheckReportPath, err)
	}
	ctxlog.FromContext(ctx).Info("Report loaded.",
		"mesh", meshString(ft.Mesh),
		"operations", ft.OperationCount(),
	)
	return ft, nil
}

// checkMatching logs every broken SEND/RECV pairing. Broken pairings are not
// fatal; the verifier reports their effect on feasibility.
func (a *App) checkMatching(ctx context.Context, ft *trace.FullTrace) {
	logger := ctxlog.FromContext(ctx)
	for _, err := range multierr.Errors(trace.CheckMatching(ft)) {
		logger.Error("Unmatched transfer.", "error", err)
	}
}

func (a *App) writeReport(ctx context.Context, ft *trace.FullTrace) (err error) {
	var w io.Writer = a.outW
	if a.config.OutPath != "" {
		f, createErr := os.Create(a.config.OutPath)
		if createErr != nil {
			return fmt.Errorf("failed to create report file: %w", createErr)
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		w = f
	}

	if err := report.Write(w, ft); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Report written.", "path", a.config.OutPath)
	return nil
}

func meshString(m placement.Mesh) string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}
