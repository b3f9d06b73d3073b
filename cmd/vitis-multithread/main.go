// Command vitis-multithread generates the multi-threaded
// implementation of a design: one compute thread per partition plus an
// I/O thread, communicating over thread-crossing FIFOs.
//
// Usage: vitis-multithread <input> <outputDir> <designName> [options]
//
// The partition->CPU pin map is a YAML file:
//
//	partitions:
//	  0: 2
//	  1: 3
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ucb-cyarp/vitis-sub000/emit"
	"github.com/ucb-cyarp/vitis-sub000/graphml"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/pipeline"
	"github.com/ucb-cyarp/vitis-sub000/sched"
)

func main() {
	app := &cli.App{
		Name:      "vitis-multithread",
		Usage:     "generate a multi-threaded implementation of a dataflow design",
		ArgsUsage: "<input> <outputDir> <designName>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dialect", Value: "simulink-export", Usage: "input dialect (vitis | simulink-export)"},
			&cli.IntFlag{Name: "blocksize", Value: 1, Usage: "samples per scheduler tick"},
			&cli.IntFlag{Name: "subblocksize", Value: 1, Usage: "samples per inner iteration (divides blocksize)"},
			&cli.IntFlag{Name: "fifolen", Value: 2, Usage: "thread-crossing FIFO length in blocks"},
			&cli.StringFlag{Name: "fifotype", Value: "lockless", Usage: "lockless | lockless-inplace"},
			&cli.StringFlag{Name: "heuristic", Value: "bfs", Usage: "topological sort heuristic (bfs | dfs | random)"},
			&cli.Int64Flag{Name: "randseed", Value: 0, Usage: "seed for the random heuristic"},
			&cli.StringFlag{Name: "iotype", Value: "const", Usage: "const | pipe | socket | shmem"},
			&cli.StringFlag{Name: "cpumap", Usage: "YAML partition->CPU pin map"},
			&cli.StringFlag{Name: "graphdumps", Value: "none", Usage: "debug graph dumps (none | key | all)"},
			&cli.BoolFlag{Name: "telemetry", Usage: "emit telemetry collector helpers"},
			&cli.BoolFlag{Name: "papi", Usage: "emit PAPI counter helpers"},
			&cli.BoolFlag{Name: "doublebuffer", Usage: "double-buffer FIFO writes"},
			&cli.BoolFlag{Name: "realtime", Usage: "request SCHED_FIFO at max priority in emitted threads"},
			&cli.BoolFlag{Name: "replicatedrivers", Usage: "replicate context decision drivers per partition"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cpuMapFile is the YAML schema of --cpumap.
type cpuMapFile struct {
	Partitions map[int]int `yaml:"partitions"`
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
	heuristic, err := sched.ParseHeuristic(c.String("heuristic"))
	if err != nil {
		return err
	}
	fifoImpl, err := nodes.ParseFIFOImpl(c.String("fifotype"))
	if err != nil {
		return err
	}
	ioVariant, err := emit.ParseIOVariant(c.String("iotype"))
	if err != nil {
		return err
	}
	dumpLevel, err := parseDumpLevel(c.String("graphdumps"))
	if err != nil {
		return err
	}

	var cpuMap map[int]int
	if path := c.String("cpumap"); path != "" {
		body, rerr := os.ReadFile(path)
		if rerr != nil {
			return fmt.Errorf("cannot read %s: %w", path, rerr)
		}
		var parsed cpuMapFile
		if yerr := yaml.Unmarshal(body, &parsed); yerr != nil {
			return fmt.Errorf("cannot parse %s: %w", path, yerr)
		}
		cpuMap = parsed.Partitions
	}

	body, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", input, err)
	}
	design, err := graphml.Import(string(body), dialect)
	if err != nil {
		return err
	}

	return pipeline.MultiThreaded(design, pipeline.Config{
		DesignName:       designName,
		Sink:             emit.NewDirSink(outputDir),
		Log:              logrus.New(),
		SchedParams:      sched.Params{Heuristic: heuristic, RandSeed: c.Int64("randseed")},
		BlockSize:        c.Int("blocksize"),
		SubBlockSize:     c.Int("subblocksize"),
		FIFOImpl:         fifoImpl,
		FIFOLengthBlocks: c.Int("fifolen"),
		DumpLevel:        dumpLevel,
		ReplicateDrivers: c.Bool("replicatedrivers"),
		EmitConfig: emit.MultiThreadConfig{
			IO:           ioVariant,
			PartitionCPU: cpuMap,
			Telemetry:    c.Bool("telemetry"),
			PAPI:         c.Bool("papi"),
			DoubleBuffer: c.Bool("doublebuffer"),
			RealTime:     c.Bool("realtime"),
		},
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
