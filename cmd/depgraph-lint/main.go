// Command depgraph-lint loads a YAML object-dependency graph fixture
// and exercises the drop engine against it from the command line, for
// interactive exploration and fixture-driven regression testing of
// cascading-delete behavior without a real embedding catalog.
// Grounded on the teacher's pkg/cli package's cobra/pflag command
// shape (one root command, global persistent flags, subcommands per
// verb) rather than its specific flag set.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/dropengine"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/logging"
)

var (
	fixturePath string
	verbosity   int
	cliSink     logging.Sink = logging.StderrSink
)

func newCLILogger() *logging.Logger {
	l := logging.NewLogger(verbosity)
	l.SetSink(cliSink)
	return l
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "depgraph-lint:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "depgraph-lint",
		Short: "Exercise the object-dependency drop engine against a YAML fixture",
	}
	root.PersistentFlags().StringVarP(&fixturePath, "fixture", "f", "", "path to a YAML graph fixture (required)")
	root.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "drop-engine diagnostic verbosity (0-2)")
	root.MarkPersistentFlagRequired("fixture")

	root.AddCommand(newDropCmd())
	root.AddCommand(newDropMultiCmd())
	root.AddCommand(newWhatDependsOnCmd())
	root.AddCommand(newDescribeCmd())
	return root
}

func parseBehavior(cascade bool) dropengine.Behavior {
	if cascade {
		return dropengine.Cascade
	}
	return dropengine.Restrict
}

func newDropCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "drop <object>",
		Short: "Drop a single object, RESTRICT by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			target, err := lf.resolve(args[0])
			if err != nil {
				return err
			}
			if err := lf.engine.PerformDeletion(context.Background(), target, parseBehavior(cascade)); err != nil {
				return err
			}
			printDropped(lf)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "cascade the drop to dependents instead of restricting")
	return cmd
}

func newDropMultiCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "drop-multi <object>...",
		Short: "Drop several objects as one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			targets := make([]address.ObjectAddress, 0, len(args))
			for _, a := range args {
				t, err := lf.resolve(a)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}
			if err := lf.engine.PerformMultipleDeletions(context.Background(), targets, parseBehavior(cascade)); err != nil {
				return err
			}
			printDropped(lf)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "cascade the drop to dependents instead of restricting")
	return cmd
}

func newWhatDependsOnCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "what-depends-on <object>",
		Short: "Drop everything that depends on an object, leaving it in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			target, err := lf.resolve(args[0])
			if err != nil {
				return err
			}
			if err := lf.engine.DeleteWhatDependsOn(context.Background(), target, !quiet); err != nil {
				return err
			}
			printDropped(lf)
			return nil
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress NOTICE-level cascade messages")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <object>",
		Short: "Print an object's diagnostic description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			target, err := lf.resolve(args[0])
			if err != nil {
				return err
			}
			desc, err := lf.engine.GetObjectDescription(context.Background(), target)
			if err != nil {
				return errors.Wrap(err, "describe")
			}
			fmt.Println(desc)
			return nil
		},
	}
}

func printDropped(lf *loadedFixture) {
	for _, a := range lf.dropped {
		fmt.Printf("dropped %s\n", a)
	}
}
