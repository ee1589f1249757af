// Command gpkern evaluates an exponential covariance function described by
// a config file on inputs read from CSV files.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lucasmaystre/gpkern/internal/config"
	"github.com/lucasmaystre/gpkern/kern"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	logLevel   string
	out        io.Writer
	log        zerolog.Logger
	k          kern.CovarianceFunction
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, log: zerolog.Nop()}
	root := &cobra.Command{
		Use:               "gpkern",
		Short:             "Evaluate an exponential GP covariance function",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "kernel description (.yaml, .yml, .json or .toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	_ = root.MarkPersistentFlagRequired("config")

	root.AddCommand(
		a.trcovCmd(),
		a.covCmd(),
		a.trvarCmd(),
		a.ghyperCmd(),
		a.ginputCmd(),
		a.packCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	lvl, err := zerolog.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(lvl).With().Timestamp().Logger()
	kern.SetLogger(a.log)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.k, err = config.BuildCovariance(cfg); err != nil {
		return err
	}
	a.log.Debug().Str("config", a.configPath).Int("params", a.k.NumParams()).Msg("kernel loaded")
	return nil
}

func (a *app) trcovCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "trcov",
		Short: "Print the training covariance of the inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := readMatrix(input)
			if err != nil {
				return err
			}
			if err := a.k.CheckDims(x, nil); err != nil {
				return err
			}
			printMatrix(a.out, a.k.TrainingCov(x))
			return nil
		},
	}
	inputFlag(cmd, &input, "input", true)
	return cmd
}

func (a *app) covCmd() *cobra.Command {
	var input, input2 string
	cmd := &cobra.Command{
		Use:   "cov",
		Short: "Print the covariance between two sets of inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x1, x2, err := readPair(input, input2)
			if err != nil {
				return err
			}
			c, err := a.k.Cov(x1, x2)
			if err != nil {
				return err
			}
			printMatrix(a.out, c)
			return nil
		},
	}
	inputFlag(cmd, &input, "input", true)
	inputFlag(cmd, &input2, "input2", true)
	return cmd
}

func (a *app) trvarCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "trvar",
		Short: "Print the variances of the inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := readMatrix(input)
			if err != nil {
				return err
			}
			if err := a.k.CheckDims(x, nil); err != nil {
				return err
			}
			printMatrix(a.out, a.k.TrainingVar(x))
			return nil
		},
	}
	inputFlag(cmd, &input, "input", true)
	return cmd
}

func (a *app) ghyperCmd() *cobra.Command {
	var (
		input, input2 string
		diag          bool
	)
	cmd := &cobra.Command{
		Use:   "ghyper",
		Short: "Print covariance derivatives with respect to the log hyperparameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, x2, err := readPair(input, input2)
			if err != nil {
				return err
			}
			if diag && x2 != nil {
				return fmt.Errorf("--diag does not take --input2")
			}
			grads, gprior, err := a.k.GradHyper(x, x2, diag)
			if err != nil {
				return err
			}
			printGrads(a.out, grads, gprior)
			return nil
		},
	}
	inputFlag(cmd, &input, "input", true)
	inputFlag(cmd, &input2, "input2", false)
	cmd.Flags().BoolVar(&diag, "diag", false, "differentiate the variances only")
	return cmd
}

func (a *app) ginputCmd() *cobra.Command {
	var input, input2 string
	cmd := &cobra.Command{
		Use:   "ginput",
		Short: "Print covariance derivatives with respect to every input coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, x2, err := readPair(input, input2)
			if err != nil {
				return err
			}
			grads, gprior, err := a.k.GradInput(x, x2)
			if err != nil {
				return err
			}
			printGrads(a.out, grads, gprior)
			return nil
		},
	}
	inputFlag(cmd, &input, "input", true)
	inputFlag(cmd, &input2, "input2", false)
	return cmd
}

func (a *app) packCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack",
		Short: "Print the packed log hyperparameters and their prior energy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := a.k.Pack(nil)
			fmt.Fprintf(a.out, "params: %v\n", w)
			fmt.Fprintf(a.out, "energy: %v\n", a.k.LogPriorEnergy(nil, nil))
			return nil
		},
	}
}

func inputFlag(cmd *cobra.Command, p *string, name string, required bool) {
	cmd.Flags().StringVar(p, name, "", "CSV file with one input per row")
	if required {
		_ = cmd.MarkFlagRequired(name)
	}
}

// readPair reads the first input and, when path2 is set, the second. The
// second matrix is an untyped nil otherwise, which the kernels read as "same
// as the first".
func readPair(path, path2 string) (mat.Matrix, mat.Matrix, error) {
	x, err := readMatrix(path)
	if err != nil {
		return nil, nil, err
	}
	if path2 == "" {
		return x, nil, nil
	}
	x2, err := readMatrix(path2)
	if err != nil {
		return nil, nil, err
	}
	return x, x2, nil
}

func printMatrix(w io.Writer, m mat.Matrix) {
	fmt.Fprintf(w, "%v\n", mat.Formatted(m, mat.Squeeze()))
}

func printGrads(w io.Writer, grads []*mat.Dense, gprior []float64) {
	for i, g := range grads {
		fmt.Fprintf(w, "# %d\n", i)
		printMatrix(w, g)
	}
	fmt.Fprintf(w, "# prior\n%v\n", gprior)
}
