package emit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/emit"
	"github.com/ucb-cyarp/vitis-sub000/multithread"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
	"github.com/ucb-cyarp/vitis-sub000/numeric"
	"github.com/ucb-cyarp/vitis-sub000/passes"
	"github.com/ucb-cyarp/vitis-sub000/sched"
)

func int16Scalar() numeric.DataType {
	return numeric.NewDataType(false, true, false, 16, 0, nil)
}

// buildEmitDesign wires Input -> Sum -> Delay -> Output with a product
// side reader, scheduled and with state updates.
func buildEmitDesign(t *testing.T) *core.Design {
	t.Helper()
	d := core.NewDesign()
	dt := int16Scalar()
	sum := nodes.NewSum("sum", nil, []bool{true, true})
	delay := nodes.NewDelay("delay", nil, 1, []numeric.NumericValue{numeric.NewIntValue(0)})
	for _, n := range []core.Node{sum, delay} {
		d.AddNode(n)
	}
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), sum.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(sum.OutputPort(0), delay.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), sum.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(delay.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()
	passes.CreateStateUpdateNodes(d, false)
	require.NoError(t, sched.ScheduleTopological(d, sched.Params{}))

	return d
}

// TestSingleThread_TopologicalArtifacts checks the header/source pair
// exists with the expected shape.
func TestSingleThread_TopologicalArtifacts(t *testing.T) {
	d := buildEmitDesign(t)
	sink := emit.NewMemSink()
	require.NoError(t, emit.EmitSingleThreaded(d, "acc", sink,
		emit.SingleThreadConfig{Strategy: sched.StrategyTopological}))

	require.Contains(t, sink.Files, "acc.h")
	require.Contains(t, sink.Files, "acc.c")
	h := sink.Files["acc.h"]
	assert.Contains(t, h, "accOutputType")
	assert.Contains(t, h, "void acc(")
	assert.Contains(t, h, "void acc_reset(void);")

	c := sink.Files["acc.c"]
	assert.Contains(t, c, "static int16_t")
	assert.Contains(t, c, "output->out_port0 =")
	// the sum expression feeds the delay's staging variable
	assert.Contains(t, c, "_stateIn")
}

// TestSingleThread_AllStrategies checks every traversal emits without
// error.
func TestSingleThread_AllStrategies(t *testing.T) {
	for _, s := range []sched.Strategy{sched.StrategyBottomUp, sched.StrategyTopological, sched.StrategyTopologicalContext} {
		d := buildEmitDesign(t)
		sink := emit.NewMemSink()
		require.NoError(t, emit.EmitSingleThreaded(d, "acc", sink,
			emit.SingleThreadConfig{Strategy: s}), s.String())
		assert.Contains(t, sink.Files["acc.c"], "void acc(", s.String())
	}
}

// buildTwoPartitionDesign wires a crossing with a FIFO and schedules.
func buildTwoPartitionDesign(t *testing.T) *core.Design {
	t.Helper()
	d := core.NewDesign()
	dt := int16Scalar()
	prod := nodes.NewSum("prod", nil, []bool{true, true})
	prod.SetPartition(0)
	cons := nodes.NewSum("cons", nil, []bool{true, true})
	cons.SetPartition(1)
	d.AddNode(prod)
	d.AddNode(cons)
	in := d.InputMaster()
	d.AddArc(core.NewArc(in.OutputPort(0), prod.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(1), prod.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(prod.OutputPort(0), cons.InputPort(0), dt, -1))
	d.AddArc(core.NewArc(in.OutputPort(2), cons.InputPort(1), dt, -1))
	d.AddArc(core.NewArc(cons.OutputPort(0), d.OutputMaster().InputPort(0), dt, -1))
	d.AssignNodeIDs()
	d.AssignArcIDs()

	fifos, err := multithread.InsertPartitionCrossingFIFOs(d, nodes.FIFOLockless, 4)
	require.NoError(t, err)
	multithread.SetFIFOBlockSizes(fifos, 2, 1)
	require.NoError(t, sched.ScheduleTopological(d, sched.Params{}, sched.WithPerPartition()))

	return d
}

// TestMultiThread_ArtifactSet checks the full artifact layout for a
// two-partition design.
func TestMultiThread_ArtifactSet(t *testing.T) {
	d := buildTwoPartitionDesign(t)
	sink := emit.NewMemSink()
	cfg := emit.MultiThreadConfig{
		BlockSize:    2,
		SubBlockSize: 1,
		IO:           emit.IOConst,
		PartitionCPU: map[int]int{0: 2, 1: 3},
		Telemetry:    true,
	}
	require.NoError(t, emit.EmitMultiThreaded(d, "dsp", sink, cfg))

	for _, name := range []string{
		"dsp.h", "dsp_parameters.h",
		"dsp_partition0.c", "dsp_partition1.c",
		"dsp_io_const.c",
		"dsp_benchmark_kernel.h", "dsp_benchmark_kernel.cpp",
		"dsp_benchmark_driver.cpp",
		"dsp_telemetry_helpers.h",
		"Makefile_dsp_const",
	} {
		assert.Contains(t, sink.Files, name, "missing artifact %s", name)
	}

	h := sink.Files["dsp.h"]
	assert.Contains(t, h, "atomic_int_fast32_t writeOffset;")
	assert.Contains(t, h, "dsp_partition0_args_t")
	assert.Contains(t, h, "void* dsp_partition1_thread(void *argsUncast);")

	params := sink.Files["dsp_parameters.h"]
	assert.Contains(t, params, "#define DSP_BLOCK_SIZE 2")
	assert.Contains(t, params, "#define DSP_PARTITION0_CPU 2")

	p0 := sink.Files["dsp_partition0.c"]
	assert.Contains(t, p0, "while (!atomic_load_explicit(args->stop")
	assert.Contains(t, p0, "spin: full")
	p1 := sink.Files["dsp_partition1.c"]
	assert.Contains(t, p1, "spin: empty")

	mk := sink.Files["Makefile_dsp_const"]
	assert.Contains(t, mk, "dsp_partition0.o")
	assert.Contains(t, mk, "-pthread")
}

// TestMultiThread_SharedMemHelpers checks the shmem variant ships the
// Berkeley-style helper pair.
func TestMultiThread_SharedMemHelpers(t *testing.T) {
	d := buildTwoPartitionDesign(t)
	sink := emit.NewMemSink()
	cfg := emit.MultiThreadConfig{BlockSize: 2, SubBlockSize: 1, IO: emit.IOSharedMem}
	require.NoError(t, emit.EmitMultiThreaded(d, "dsp", sink, cfg))

	assert.Contains(t, sink.Files, "BerkeleySharedMemoryFIFO.c")
	assert.Contains(t, sink.Files, "BerkeleySharedMemoryFIFO.h")
	assert.Contains(t, sink.Files["Makefile_dsp_shmem"], "-lrt")
}

// TestMultiThread_DoubleBuffer checks the staging block appears only
// in double-buffer mode.
func TestMultiThread_DoubleBuffer(t *testing.T) {
	d := buildTwoPartitionDesign(t)
	sink := emit.NewMemSink()
	require.NoError(t, emit.EmitMultiThreaded(d, "dsp", sink,
		emit.MultiThreadConfig{BlockSize: 2, SubBlockSize: 1, DoubleBuffer: true}))
	assert.Contains(t, sink.Files["dsp_partition0.c"], "stage_")

	sink2 := emit.NewMemSink()
	require.NoError(t, emit.EmitMultiThreaded(d, "dsp", sink2,
		emit.MultiThreadConfig{BlockSize: 2, SubBlockSize: 1}))
	assert.NotContains(t, sink2.Files["dsp_partition0.c"], "stage_")
}

// TestMultiThread_RealTimeFlag checks the SCHED_FIFO request appears
// only when asked for.
func TestMultiThread_RealTimeFlag(t *testing.T) {
	d := buildTwoPartitionDesign(t)
	sink := emit.NewMemSink()
	require.NoError(t, emit.EmitMultiThreaded(d, "dsp", sink,
		emit.MultiThreadConfig{BlockSize: 2, SubBlockSize: 1, RealTime: true}))
	assert.Contains(t, sink.Files["dsp_benchmark_kernel.cpp"], "SCHED_FIFO")

	sink2 := emit.NewMemSink()
	require.NoError(t, emit.EmitMultiThreaded(d, "dsp", sink2,
		emit.MultiThreadConfig{BlockSize: 2, SubBlockSize: 1}))
	assert.NotContains(t, sink2.Files["dsp_benchmark_kernel.cpp"], "SCHED_FIFO")
}
