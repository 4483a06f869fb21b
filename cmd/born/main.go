// Package main provides the Born ML Framework CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/internal/envconfig"
	"github.com/born-ml/born/internal/serialization"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"
)

const version = "v0.0.1-dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: envconfig.LogLevel()})))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "born",
		Short:        "Born ML Framework",
		SilenceUsage: true,
	}
	root.AddCommand(newVersionCmd(), newDemoCmd(), newFitCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Born ML Framework %s\n", version)
		},
	}
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Differentiate z = (x + y) * x at x=2, y=3",
		Args:  cobra.NoArgs,
		RunE:  demoHandler,
	}
	cmd.Flags().String("checkpointing", "", "Checkpointing strategy: none or balanced (default from BORN_CHECKPOINTING)")
	cmd.Flags().Bool("metrics", false, "Print autodiff metrics after the backward pass")
	cmd.Flags().String("save", "", "Write inputs, output and gradients to a SafeTensors file")
	return cmd
}

func backendOptions(cmd *cobra.Command) ([]autodiff.Option, error) {
	var opts []autodiff.Option
	if s, _ := cmd.Flags().GetString("checkpointing"); s != "" {
		strategy, err := autodiff.ParseStrategy(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, autodiff.WithCheckpointing(strategy))
	}
	return opts, nil
}

func demoHandler(cmd *cobra.Command, _ []string) error {
	opts, err := backendOptions(cmd)
	if err != nil {
		return err
	}

	showMetrics, _ := cmd.Flags().GetBool("metrics")
	reg := prometheus.NewRegistry()
	if showMetrics {
		opts = append(opts, autodiff.WithMetrics(reg))
	}

	b := autodiff.New(cpu.New(), opts...)

	x := b.Scalar(2).RequireGrad()
	y := b.Scalar(3).RequireGrad()
	z := b.Mul(b.Add(x, y), x)

	grads := z.Backward()
	dx, _ := x.Grad(grads)
	dy, _ := y.Grad(grads)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "strategy: %s\n", b.Strategy())
	fmt.Fprintf(out, "z     = %g\n", z.Value().Item())
	fmt.Fprintf(out, "dz/dx = %g\n", dx.Item())
	fmt.Fprintf(out, "dz/dy = %g\n", dy.Item())

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		err := serialization.SaveFile(path, map[string]*tensor.RawTensor{
			"x":      x.Value(),
			"y":      y.Value(),
			"z":      z.Value(),
			"grad.x": dx,
			"grad.y": dy,
		}, map[string]string{"strategy": b.Strategy().String()})
		if err != nil {
			return err
		}
	}

	if showMetrics {
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				switch {
				case m.GetCounter() != nil:
					fmt.Fprintf(out, "%s %g\n", mf.GetName(), m.GetCounter().GetValue())
				case m.GetGauge() != nil:
					fmt.Fprintf(out, "%s %g\n", mf.GetName(), m.GetGauge().GetValue())
				}
			}
		}
	}
	return nil
}

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Minimize (w - target)^2 with Adam",
		Args:  cobra.NoArgs,
		RunE:  fitHandler,
	}
	cmd.Flags().String("checkpointing", "", "Checkpointing strategy: none or balanced (default from BORN_CHECKPOINTING)")
	cmd.Flags().Float64("target", 3, "Value w converges to")
	cmd.Flags().Float64("lr", 0.1, "Learning rate")
	cmd.Flags().Int("steps", 200, "Number of optimization steps")
	cmd.Flags().String("save", "", "Write the fitted parameter to a SafeTensors file")
	return cmd
}

func fitHandler(cmd *cobra.Command, _ []string) error {
	opts, err := backendOptions(cmd)
	if err != nil {
		return err
	}
	target, _ := cmd.Flags().GetFloat64("target")
	lr, _ := cmd.Flags().GetFloat64("lr")
	steps, _ := cmd.Flags().GetInt("steps")

	b := autodiff.New(cpu.New(), opts...)
	w := b.MustFromSlice([]float64{0}, tensor.Shape{1}).RequireGrad()
	optimizer := optim.NewAdam([]*autodiff.Tensor{w}, optim.AdamConfig{LR: lr})

	var loss float64
	for range steps {
		d := b.AddScalar(w, -target)
		l := b.Sum(b.Mul(d, d))
		loss = l.Value().Item()

		grads := l.Backward()
		optimizer.Step(grads)
		optimizer.ZeroGrad(grads)
	}
	slog.Debug("fit finished", "steps", steps, "nodes", b.Client().NumNodes(), "graphs", b.Client().NumGraphs())

	fmt.Fprintf(cmd.OutOrStdout(), "w = %.4f (loss %.6f)\n", w.Value().Item(), loss)

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		return serialization.SaveFile(path, map[string]*tensor.RawTensor{"w": w.Value()}, nil)
	}
	return nil
}
