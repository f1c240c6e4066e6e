package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"javaseeker/internal/analysis"
)

var (
	analyzeProject   string
	analyzeDirection string
	analyzeStrict    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <class-or-method>",
	Short: "Find references to and from a class or method",
	Long: `Build the source model of a ready project and list the references to the
target (TO) and the references made from it (FROM).

The target is a class name or a method specifier:
  pkg.ClassB                   a class, qualified or simple
  pkg.ClassB#methodB()         a method with its parameter types
  pkg.ClassB#methodB           any overload of the method

Examples:
  javaseeker analyze --project shop com.acme.cart.Cart
  javaseeker analyze --project shop "Cart#add(com.acme.Item,int)" --direction from
  javaseeker analyze --project shop Cart --strict --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeProject, "project", "p", "", "Project name")
	analyzeCmd.Flags().StringVarP(&analyzeDirection, "direction", "d", "BOTH", "TO, FROM or BOTH")
	analyzeCmd.Flags().BoolVar(&analyzeStrict, "strict", false, "Fail when the target cannot be resolved")
	_ = analyzeCmd.MarkFlagRequired("project")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	logger := e.consoleLogger()
	store, err := e.openProjects(logger)
	if err != nil {
		return err
	}
	svc, err := e.newAnalyzer(store, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := svc.Analyze(ctx, analysis.Request{
		ProjectName: analyzeProject,
		CodeSnippet: args[0],
		Direction:   analyzeDirection,
		Strict:      analyzeStrict,
	})
	if err != nil {
		return err
	}
	return printResponse(res)
}
