package pipeline

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ucb-cyarp/vitis-sub000/blocking"
	"github.com/ucb-cyarp/vitis-sub000/contexts"
	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/emit"
	"github.com/ucb-cyarp/vitis-sub000/graphml"
	"github.com/ucb-cyarp/vitis-sub000/multirate"
	"github.com/ucb-cyarp/vitis-sub000/multithread"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/passes"
	"github.com/ucb-cyarp/vitis-sub000/sched"
)

// Config carries the options shared by both flows.
type Config struct {
	DesignName string
	Sink       emit.Sink
	Log        *logrus.Logger

	SchedParams  sched.Params
	Strategy     sched.Strategy
	BlockSize    int
	SubBlockSize int

	FIFOImpl         nodes.FIFOImpl
	FIFOLengthBlocks int

	EmitConfig emit.MultiThreadConfig

	DumpLevel        graphml.DumpLevel
	ReplicateDrivers bool
	PartitionMap     map[string]int // node name path -> partition
}

// logger returns the configured logger or a silent default.
func (c *Config) logger() *logrus.Logger {
	if c.Log != nil {
		return c.Log
	}
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)

	return l
}

// pass logs one pipeline step with graph size context.
func pass(log *logrus.Logger, d *core.Design, name string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"pass":  name,
		"nodes": len(d.Nodes()),
		"arcs":  len(d.Arcs()),
	})
}

// SingleThreaded runs the reference flow: prune, expand, optional
// context discovery, state updates, scheduling, verification, and flat
// emission.
func SingleThreaded(d *core.Design, cfg Config) error {
	log := cfg.logger()
	dumper := &graphml.Dumper{Sink: cfg.Sink, DesignName: cfg.DesignName, Level: cfg.DumpLevel}

	applyPartitionMap(d, cfg.PartitionMap)
	passes.PropagatePartitionsFromSubsystems(d)
	passes.AssignPartitionToUnassigned(d, 0)
	pruned := passes.Prune(d, true)
	passes.DisconnectUnconnectedArcs(d, false)
	pass(log, d, "prune").WithField("removed", pruned).Info("pruned design")

	if _, err := passes.ExpandToPrimitives(d); err != nil {
		return err
	}
	if cfg.Strategy.IsContextAware() {
		contexts.ExpandEnabledSubsystemContexts(d)
		contexts.DiscoverAndMarkContexts(d)
		pass(log, d, "contexts").Info("discovered contexts")
	}
	passes.CreateStateUpdateNodes(d, cfg.Strategy.IsContextAware())
	d.AssignNodeIDs()
	d.AssignArcIDs()

	if err := d.ValidateNodes(); err != nil {
		return err
	}
	if err := sched.ScheduleTopological(d, cfg.SchedParams,
		sched.WithCycleDump(dumper.DumpResidual)); err != nil {
		return err
	}
	if err := sched.VerifyTopologicalOrder(d, true); err != nil {
		return err
	}
	if err := dumper.Dump(d, graphml.CheckpointPostSchedule); err != nil {
		return err
	}
	pass(log, d, "schedule").Info("scheduled design")

	return emit.EmitSingleThreaded(d, cfg.DesignName, cfg.Sink, emit.SingleThreadConfig{Strategy: cfg.Strategy})
}

// MultiThreaded runs the full partition pipeline in the fixed order.
func MultiThreaded(d *core.Design, cfg Config) error {
	log := cfg.logger()
	dumper := &graphml.Dumper{Sink: cfg.Sink, DesignName: cfg.DesignName, Level: cfg.DumpLevel}
	if cfg.BlockSize < 1 {
		cfg.BlockSize = 1
	}
	if cfg.SubBlockSize < 1 {
		cfg.SubBlockSize = 1
	}
	if cfg.FIFOLengthBlocks < 1 {
		cfg.FIFOLengthBlocks = 2
	}

	// 1. Propagate partitions from subsystems.
	applyPartitionMap(d, cfg.PartitionMap)
	passes.PropagatePartitionsFromSubsystems(d)

	// 2. Prune; disconnect unconnected arcs.
	pruned := passes.Prune(d, true)
	passes.DisconnectUnconnectedArcs(d, false)
	pass(log, d, "prune").WithField("removed", pruned).Info("pruned design")

	// 3. Clock domains: discover, rediscover rates, specialize, support
	//    nodes, validate.
	multirate.ResetMasterNodeClockDomainLinks(d)
	if err := multirate.RediscoverRateParameters(d); err != nil {
		return err
	}
	if _, err := multirate.SpecializeClockDomains(d); err != nil {
		return err
	}
	multirate.CreateClockDomainSupportNodes(d)
	if err := multirate.ValidateRates(d); err != nil {
		return err
	}
	pass(log, d, "clockDomains").Info("specialized clock domains")

	// 4. Expand enabled-subsystem contexts.
	contexts.ExpandEnabledSubsystemContexts(d)

	// 5. Assign partitions to anything still unassigned.
	passes.AssignPartitionToUnassigned(d, 0)

	// 6. Enable-line placement, context discovery, driver replication.
	contexts.PlaceEnableNodesInPartitions(d)
	contexts.DiscoverAndMarkContexts(d)
	if cfg.ReplicateDrivers {
		for _, r := range d.ContextRoots() {
			if m, ok := r.(*nodes.Mux); ok {
				m.SetReplicateDrivers(true)
			}
			if e, ok := r.(*nodes.EnabledSubsystem); ok {
				e.SetReplicateDrivers(true)
			}
		}
		contexts.ReplicateContextDrivers(d)
	}
	d.AssignNodeIDs()
	d.AssignArcIDs()
	pass(log, d, "contexts").Info("discovered and marked contexts")

	if err := dumper.Dump(d, graphml.CheckpointPreBlocking); err != nil {
		return err
	}

	// 7. Block and sub-block.
	blockRes, err := blocking.BlockAndSubBlock(d, cfg.BlockSize, cfg.SubBlockSize)
	if err != nil {
		return err
	}
	contexts.DiscoverAndMarkContexts(d)
	pass(log, d, "blocking").Info("blocked design")
	if err = dumper.Dump(d, graphml.CheckpointPostBlocking); err != nil {
		return err
	}

	// 8. Encapsulate contexts; context variable updates.
	contexts.EncapsulateContexts(d)
	contexts.CreateContextVariableUpdateNodes(d)
	pass(log, d, "encapsulate").Info("encapsulated contexts")

	// 9. Insert partition-crossing FIFOs.
	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, cfg.FIFOImpl, cfg.FIFOLengthBlocks)
	if err != nil {
		return err
	}
	multithread.SetFIFOBlockSizes(fifos, cfg.BlockSize, cfg.SubBlockSize)
	pass(log, d, "fifoInsert").WithField("crossings", len(fifos)).Info("inserted thread-crossing FIFOs")

	// 10. Absorb delays; merge FIFOs; apply deferred delay dimensions.
	if err = multithread.AbsorbAdjacentDelaysIntoFIFOs(d, fifos, cfg.BlockSize); err != nil {
		return err
	}
	if _, err = multithread.MergeFIFOs(d, fifos, cfg.BlockSize); err != nil {
		return err
	}
	blocking.SpecializeDeferredDelays(d, blockRes.Deferred)
	if err = dumper.Dump(d, graphml.CheckpointCommunication); err != nil {
		return err
	}
	if err = dumper.Dump(d, graphml.CheckpointCommInitCond); err != nil {
		return err
	}

	// 11. Deadlock check.
	if err = multithread.CheckForDeadlock(d, cfg.BlockSize); err != nil {
		return err
	}

	// 12. State-update nodes.
	passes.CreateStateUpdateNodes(d, true)

	// 13. Schedule per partition; verify.
	if err = d.ValidateNodes(); err != nil {
		return err
	}
	if err = sched.ScheduleTopological(d, cfg.SchedParams,
		sched.WithPerPartition(), sched.WithCycleDump(dumper.DumpResidual)); err != nil {
		return err
	}
	if err = sched.VerifyTopologicalOrder(d, true); err != nil {
		return err
	}
	if err = dumper.Dump(d, graphml.CheckpointPostSchedule); err != nil {
		return err
	}
	pass(log, d, "schedule").Info("scheduled design")

	// 14. Emit.
	emitCfg := cfg.EmitConfig
	emitCfg.BlockSize = cfg.BlockSize
	emitCfg.SubBlockSize = cfg.SubBlockSize

	return emit.EmitMultiThreaded(d, cfg.DesignName, cfg.Sink, emitCfg)
}

// applyPartitionMap assigns partitions by node name path.
func applyPartitionMap(d *core.Design, m map[string]int) {
	for path, part := range m {
		if n, err := d.NodeByNamePath(splitPath(path)); err == nil {
			n.SetPartition(part)
		}
	}
}

// splitPath splits a name path on '/'.
func splitPath(p string) []string { return strings.Split(p, "/") }
