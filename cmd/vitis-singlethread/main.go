// Command vitis-singlethread generates the single-threaded reference
// implementation of a design.
//
// Usage: vitis-singlethread <input> <outputDir> <designName> [options]
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ucb-cyarp/vitis-sub000/emit"
	"github.com/ucb-cyarp/vitis-sub000/graphml"
	"github.com/ucb-cyarp/vitis-sub000/pipeline"
	"github.com/ucb-cyarp/vitis-sub000/sched"
)

func main() {
	app := &cli.App{
		Name:      "vitis-singlethread",
		Usage:     "generate a single-threaded implementation of a dataflow design",
		ArgsUsage: "<input> <outputDir> <designName>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dialect", Value: "simulink-export", Usage: "input dialect (vitis | simulink-export)"},
			&cli.StringFlag{Name: "scheduler", Value: "topological_context", Usage: "bottomUp | topological | topological_context"},
			&cli.StringFlag{Name: "heuristic", Value: "bfs", Usage: "topological sort heuristic (bfs | dfs | random)"},
			&cli.Int64Flag{Name: "randseed", Value: 0, Usage: "seed for the random heuristic"},
			&cli.StringFlag{Name: "graphdumps", Value: "none", Usage: "debug graph dumps (none | key | all)"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Args().Len() != 3 {
		return cli.Exit("expected <input> <outputDir> <designName>", 1)
	}
	input, outputDir, designName := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)

	dialect, err := graphml.ParseDialect(c.String("dialect"))
	if err != nil {
		return err
	}
	strategy, err := sched.ParseStrategy(c.String("scheduler"))
	if err != nil {
		return err
	}
	heuristic, err := sched.ParseHeuristic(c.String("heuristic"))
	if err != nil {
		return err
	}
	dumpLevel, err := parseDumpLevel(c.String("graphdumps"))
	if err != nil {
		return err
	}

	body, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", input, err)
	}
	design, err := graphml.Import(string(body), dialect)
	if err != nil {
		return err
	}

	return pipeline.SingleThreaded(design, pipeline.Config{
		DesignName:  designName,
		Sink:        emit.NewDirSink(outputDir),
		Log:         logrus.New(),
		Strategy:    strategy,
		SchedParams: sched.Params{Heuristic: heuristic, RandSeed: c.Int64("randseed")},
		DumpLevel:   dumpLevel,
	})
}

func parseDumpLevel(s string) (graphml.DumpLevel, error) {
	switch s {
	case "none":
		return graphml.DumpNone, nil
	case "key":
		return graphml.DumpKey, nil
	case "all":
		return graphml.DumpAll, nil
	default:
		return 0, fmt.Errorf("unknown graph dump level %q", s)
	}
}
