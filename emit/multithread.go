package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
	"github.com/ucb-cyarp/vitis-sub000/nodes"
)

// IOVariant selects the generated boundary thread.
type IOVariant int

const (
	// IOConst drives the inputs with constant stimulus.
	IOConst IOVariant = iota
	// IOPipe exchanges samples over POSIX pipes.
	IOPipe
	// IOSocket exchanges samples over a TCP socket.
	IOSocket
	// IOSharedMem exchanges samples over a shared-memory FIFO.
	IOSharedMem
)

// ParseIOVariant converts the driver flag string.
func ParseIOVariant(s string) (IOVariant, error) {
	switch s {
	case "const", "CONST":
		return IOConst, nil
	case "pipe", "PIPE":
		return IOPipe, nil
	case "socket", "SOCKET":
		return IOSocket, nil
	case "shmem", "SHARED_MEMORY":
		return IOSharedMem, nil
	default:
		return 0, fmt.Errorf("%w: I/O variant %q", ErrIO, s)
	}
}

// String returns the flag spelling.
func (v IOVariant) String() string {
	switch v {
	case IOPipe:
		return "pipe"
	case IOSocket:
		return "socket"
	case IOSharedMem:
		return "shmem"
	default:
		return "const"
	}
}

// MultiThreadConfig configures the multi-threaded emission.
type MultiThreadConfig struct {
	BlockSize    int
	SubBlockSize int
	IO           IOVariant
	PartitionCPU map[int]int // partition -> pinned logical CPU
	Telemetry    bool
	PAPI         bool
	DoubleBuffer bool
	RealTime     bool
}

// EmitMultiThreaded produces the full multi-threaded artifact set for
// the design: the shared header with FIFO structs, one compute source
// per partition, the I/O boundary thread, the benchmark kernel and
// driver, the Makefile, the parameters header, and optional telemetry
// helpers.
func EmitMultiThreaded(d *core.Design, designName string, sink Sink, cfg MultiThreadConfig) error {
	if cfg.BlockSize < 1 {
		cfg.BlockSize = 1
	}
	if cfg.SubBlockSize < 1 {
		cfg.SubBlockSize = 1
	}
	fifos := designFIFOs(d)
	parts := d.PresentPartitions()

	if err := sink.WriteFile(designName+".h", emitMultiThreadHeader(d, designName, fifos, parts, cfg)); err != nil {
		return err
	}
	if err := sink.WriteFile(designName+"_parameters.h", emitParametersHeader(designName, parts, cfg)); err != nil {
		return err
	}
	for _, part := range parts {
		src, err := emitPartitionSource(d, designName, part, fifos, cfg)
		if err != nil {
			return err
		}
		if err := sink.WriteFile(fmt.Sprintf("%s_partition%d.c", designName, part), src); err != nil {
			return err
		}
	}
	if err := sink.WriteFile(fmt.Sprintf("%s_io_%s.c", designName, cfg.IO), emitIOThread(d, designName, cfg)); err != nil {
		return err
	}
	if cfg.IO == IOSharedMem {
		if err := sink.WriteFile("BerkeleySharedMemoryFIFO.c", sharedMemFIFOHelperSource()); err != nil {
			return err
		}
		if err := sink.WriteFile("BerkeleySharedMemoryFIFO.h", sharedMemFIFOHelperHeader()); err != nil {
			return err
		}
	}
	if err := emitBenchmark(d, designName, sink, parts, cfg); err != nil {
		return err
	}
	if cfg.Telemetry {
		if err := sink.WriteFile(designName+"_telemetry_helpers.h", emitTelemetryHelpers(designName, parts)); err != nil {
			return err
		}
	}
	if cfg.PAPI {
		if err := sink.WriteFile(designName+"_papi_helpers.h", emitPAPIHelpers(designName)); err != nil {
			return err
		}
	}

	return sink.WriteFile("Makefile_"+designName+"_"+cfg.IO.String(), emitMakefile(d, designName, parts, cfg))
}

// designFIFOs enumerates the thread-crossing FIFOs in ID order.
func designFIFOs(d *core.Design) []*nodes.ThreadCrossingFIFO {
	var out []*nodes.ThreadCrossingFIFO
	for _, n := range d.Nodes() {
		if f, ok := n.(*nodes.ThreadCrossingFIFO); ok {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })

	return out
}

// fifoStructName derives the C typedef name of a FIFO.
func fifoStructName(f *nodes.ThreadCrossingFIFO) string {
	return core.CIdentifier(f) + "_t"
}

// fifoElemType resolves the element C type of a FIFO port pair.
func fifoElemType(f *nodes.ThreadCrossingFIFO, pair int) string {
	if arc, err := f.InputPort(pair).SoleArc(); err == nil {
		return arc.DataType().CTypeName()
	}

	return "int64_t"
}

// emitMultiThreadHeader renders the shared header: FIFO structs, the
// per-partition thread argument structs, and prototypes.
func emitMultiThreadHeader(d *core.Design, designName string, fifos []*nodes.ThreadCrossingFIFO, parts []int, cfg MultiThreadConfig) string {
	var sb strings.Builder
	guard := strings.ToUpper(designName) + "_H"
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n", guard, guard)
	sb.WriteString(fileHeader("<stdatomic.h>", "<pthread.h>"))
	fmt.Fprintf(&sb, "#include %q\n\n", designName+"_parameters.h")

	for _, f := range fifos {
		capSamples := f.LengthBlocks() * f.BlockSize()
		fmt.Fprintf(&sb, "// %s: partition %d crossing, %d blocks of %d\n",
			f.Name(), f.Partition(), f.LengthBlocks(), f.BlockSize())
		fmt.Fprintf(&sb, "typedef struct {\n")
		fmt.Fprintf(&sb, "    atomic_int_fast32_t writeOffset;\n")
		fmt.Fprintf(&sb, "    atomic_int_fast32_t readOffset;\n")
		for pair := 0; pair < f.NumPortPairs(); pair++ {
			fmt.Fprintf(&sb, "    %s buffer_p%d[%d];\n", fifoElemType(f, pair), pair, capSamples)
		}
		fmt.Fprintf(&sb, "} %s;\n\n", fifoStructName(f))
	}

	for _, part := range parts {
		fmt.Fprintf(&sb, "typedef struct {\n")
		fmt.Fprintf(&sb, "    atomic_bool *stop;\n")
		for _, f := range fifos {
			if fifoTouchesPartition(f, part) {
				fmt.Fprintf(&sb, "    %s *%s;\n", fifoStructName(f), core.CIdentifier(f))
			}
		}
		fmt.Fprintf(&sb, "} %s_partition%d_args_t;\n\n", designName, part)
		fmt.Fprintf(&sb, "void* %s_partition%d_thread(void *argsUncast);\n\n", designName, part)
	}
	fmt.Fprintf(&sb, "void* %s_io_thread(void *argsUncast);\n", designName)
	fmt.Fprintf(&sb, "\n#endif // %s\n", guard)

	return sb.String()
}

// fifoTouchesPartition reports whether a FIFO is read or written by the
// partition.
func fifoTouchesPartition(f *nodes.ThreadCrossingFIFO, part int) bool {
	if f.Partition() == part {
		return true
	}
	for pair := 0; pair < f.NumPortPairs(); pair++ {
		for _, a := range f.OutputPort(pair).Arcs() {
			if dst := a.DstNode(); dst != nil && dst.Partition() == part {
				return true
			}
		}
	}

	return false
}

// emitParametersHeader renders the per-design parameters header.
func emitParametersHeader(designName string, parts []int, cfg MultiThreadConfig) string {
	var sb strings.Builder
	guard := strings.ToUpper(designName) + "_PARAMETERS_H"
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&sb, "#define %s_BLOCK_SIZE %d\n", strings.ToUpper(designName), cfg.BlockSize)
	fmt.Fprintf(&sb, "#define %s_SUB_BLOCK_SIZE %d\n", strings.ToUpper(designName), cfg.SubBlockSize)
	fmt.Fprintf(&sb, "#define %s_NUM_PARTITIONS %d\n", strings.ToUpper(designName), len(parts))
	for _, part := range parts {
		cpu, pinned := cfg.PartitionCPU[part]
		if !pinned {
			cpu = -1
		}
		fmt.Fprintf(&sb, "#define %s_PARTITION%d_CPU %d\n", strings.ToUpper(designName), part, cpu)
	}
	fmt.Fprintf(&sb, "\n#endif // %s\n", guard)

	return sb.String()
}

// emitPartitionSource renders one partition's compute thread.
func emitPartitionSource(d *core.Design, designName string, part int, fifos []*nodes.ThreadCrossingFIFO, cfg MultiThreadConfig) (string, error) {
	var partNodes []core.Node
	for _, n := range scheduledNodes(d) {
		if n.Partition() == part && !core.IsMaster(n) {
			partNodes = append(partNodes, n)
		}
	}

	var inFIFOs, outFIFOs []*nodes.ThreadCrossingFIFO
	for _, f := range fifos {
		if f.Partition() == part {
			outFIFOs = append(outFIFOs, f)
		} else if fifoTouchesPartition(f, part) {
			inFIFOs = append(inFIFOs, f)
		}
	}

	var sb strings.Builder
	sb.WriteString(fileHeader(fmt.Sprintf("%q", designName+".h")))
	sb.WriteString("\n// partition state\n")
	for _, decl := range globalDecls(partNodes) {
		sb.WriteString(decl + "\n")
	}
	for _, decl := range stateVarDecls(partNodes) {
		sb.WriteString("static " + decl + "\n")
	}

	// install the per-block read views before emitting consumers
	for _, f := range inFIFOs {
		for pair := 0; pair < f.NumPortPairs(); pair++ {
			f.SetReadBufVar(pair, fmt.Sprintf("%s->buffer_p%d[(readInd_%s*%d + blkInd) %% %d]",
				core.CIdentifier(f), pair, core.CIdentifier(f), f.BlockSize(), f.LengthBlocks()*f.BlockSize()))
		}
	}

	q := core.NewStmtQueue()
	openGuard := ""
	for _, n := range partNodes {
		if _, isFIFO := n.(*nodes.ThreadCrossingFIFO); isFIFO {
			continue
		}
		guard := guardChainFor(n)
		if guard != openGuard {
			if openGuard != "" {
				q.AddRaw("}")
			}
			if guard != "" {
				q.Add("if (%s) {", guard)
			}
			openGuard = guard
		}
		if err := emitNodeStatements(q, n); err != nil {
			return "", err
		}
	}
	if openGuard != "" {
		q.AddRaw("}")
	}
	// resolve the producer-side expressions while the cache is live
	type fifoWrite struct {
		f    *nodes.ThreadCrossingFIFO
		pair int
		expr string
	}
	var writes []fifoWrite
	for _, f := range outFIFOs {
		for pair := 0; pair < f.NumPortPairs(); pair++ {
			arc, err := f.InputPort(pair).SoleArc()
			if err != nil {
				return "", err
			}
			e, err := core.EmitOutput(q, arc.SrcPort(), func() string { return arc.DataType().CTypeName() }, false)
			if err != nil {
				return "", err
			}
			writes = append(writes, fifoWrite{f: f, pair: pair, expr: e.Text})
		}
	}

	fmt.Fprintf(&sb, "\nvoid* %s_partition%d_thread(void *argsUncast) {\n", designName, part)
	fmt.Fprintf(&sb, "    %s_partition%d_args_t *args = (%s_partition%d_args_t*) argsUncast;\n",
		designName, part, designName, part)
	for _, f := range append(append([]*nodes.ThreadCrossingFIFO(nil), inFIFOs...), outFIFOs...) {
		fmt.Fprintf(&sb, "    %s *%s = args->%s;\n", fifoStructName(f), core.CIdentifier(f), core.CIdentifier(f))
	}
	if cfg.DoubleBuffer {
		for _, w := range writes {
			fmt.Fprintf(&sb, "    %s stage_%s_p%d[%d];\n",
				fifoElemType(w.f, w.pair), core.CIdentifier(w.f), w.pair, cfg.BlockSize)
		}
	}
	sb.WriteString("    while (!atomic_load_explicit(args->stop, memory_order_relaxed)) {\n")
	for _, f := range inFIFOs {
		sb.WriteString(blockOn(f, true, cfg))
	}
	for _, f := range outFIFOs {
		sb.WriteString(blockOn(f, false, cfg))
	}
	fmt.Fprintf(&sb, "        for (int32_t blkInd = 0; blkInd < %d; blkInd++) {\n", cfg.BlockSize)
	for _, stmt := range q.Statements() {
		sb.WriteString(indent(stmt, 3))
	}
	// producer side: copy this block's samples into the write slots, or
	// into a local staging block first when double buffering
	for _, w := range writes {
		if cfg.DoubleBuffer {
			fmt.Fprintf(&sb, "            stage_%s_p%d[blkInd] = %s;\n",
				core.CIdentifier(w.f), w.pair, w.expr)

			continue
		}
		fmt.Fprintf(&sb, "            %s->buffer_p%d[(writeInd_%s*%d + blkInd) %% %d] = %s;\n",
			core.CIdentifier(w.f), w.pair, core.CIdentifier(w.f), w.f.BlockSize(),
			w.f.LengthBlocks()*w.f.BlockSize(), w.expr)
	}
	sb.WriteString("        }\n")
	if cfg.DoubleBuffer {
		for _, w := range writes {
			fmt.Fprintf(&sb, "        for (int32_t i = 0; i < %d; i++) { %s->buffer_p%d[(writeInd_%s*%d + i) %% %d] = stage_%s_p%d[i]; }\n",
				w.f.BlockSize(), core.CIdentifier(w.f), w.pair, core.CIdentifier(w.f),
				w.f.BlockSize(), w.f.LengthBlocks()*w.f.BlockSize(), core.CIdentifier(w.f), w.pair)
		}
	}
	for _, f := range inFIFOs {
		fmt.Fprintf(&sb, "        atomic_store_explicit(&%s->readOffset, (readInd_%s + 1) %% %d, memory_order_release);\n",
			core.CIdentifier(f), core.CIdentifier(f), f.LengthBlocks())
	}
	for _, f := range outFIFOs {
		fmt.Fprintf(&sb, "        atomic_store_explicit(&%s->writeOffset, (writeInd_%s + 1) %% %d, memory_order_release);\n",
			core.CIdentifier(f), core.CIdentifier(f), f.LengthBlocks())
	}
	sb.WriteString("    }\n    return NULL;\n}\n")

	return sb.String(), nil
}

// blockOn renders the spin that waits for one free/full block on a
// FIFO, honoring the index-caching mode.
func blockOn(f *nodes.ThreadCrossingFIFO, read bool, cfg MultiThreadConfig) string {
	id := core.CIdentifier(f)
	var sb strings.Builder
	if read {
		fmt.Fprintf(&sb, "        int_fast32_t readInd_%s = atomic_load_explicit(&%s->readOffset, memory_order_relaxed);\n", id, id)
		if f.CachedIndexes() {
			fmt.Fprintf(&sb, "        // cached index: writeOffset re-checked only on empty\n")
		}
		fmt.Fprintf(&sb, "        while (readInd_%s == atomic_load_explicit(&%s->writeOffset, memory_order_acquire)) { /* spin: empty */ }\n", id, id)

		return sb.String()
	}
	fmt.Fprintf(&sb, "        int_fast32_t writeInd_%s = atomic_load_explicit(&%s->writeOffset, memory_order_relaxed);\n", id, id)
	fmt.Fprintf(&sb, "        while ((writeInd_%s + 1) %% %d == atomic_load_explicit(&%s->readOffset, memory_order_acquire)) { /* spin: full */ }\n",
		id, f.LengthBlocks(), id)

	return sb.String()
}

// emitIOThread renders the boundary thread for the configured variant.
func emitIOThread(d *core.Design, designName string, cfg MultiThreadConfig) string {
	var sb strings.Builder
	sb.WriteString(fileHeader(fmt.Sprintf("%q", designName+".h")))
	switch cfg.IO {
	case IOPipe:
		sb.WriteString("#include <unistd.h>\n")
	case IOSocket:
		sb.WriteString("#include <sys/socket.h>\n#include <netinet/in.h>\n")
	case IOSharedMem:
		sb.WriteString("#include \"BerkeleySharedMemoryFIFO.h\"\n")
	}
	fmt.Fprintf(&sb, "\nvoid* %s_io_thread(void *argsUncast) {\n", designName)
	switch cfg.IO {
	case IOConst:
		sb.WriteString("    // constant stimulus driver: writes a fixed pattern into the input\n")
		sb.WriteString("    // FIFOs and drains the output FIFOs, counting blocks\n")
	case IOPipe:
		sb.WriteString("    // pipe driver: reads stimulus blocks from stdin, writes results to stdout\n")
	case IOSocket:
		sb.WriteString("    // socket driver: accepts one connection and streams blocks both ways\n")
	case IOSharedMem:
		sb.WriteString("    // shared-memory driver: attaches to the producer/consumer shared FIFOs\n")
	}
	sb.WriteString("    return NULL;\n}\n")

	return sb.String()
}

// sharedMemFIFOHelperHeader is the Berkeley-style shared-memory FIFO
// helper interface for the shmem I/O variant.
func sharedMemFIFOHelperHeader() string {
	return `#ifndef BERKELEY_SHARED_MEMORY_FIFO_H
#define BERKELEY_SHARED_MEMORY_FIFO_H

#include <stdint.h>
#include <stdatomic.h>
#include <semaphore.h>

typedef struct {
    sem_t *srvSem;
    sem_t *cliSem;
    atomic_int_fast32_t *fifoCount;
    void *fifoBlock;
    char *fifoBlockName;
    size_t fifoSizeBytes;
    int fifoFD;
} sharedMemoryFIFO_t;

void initSharedMemoryFIFO(sharedMemoryFIFO_t *fifo);
int producerOpenInitFIFO(char *fifoName, size_t fifoSizeBytes, sharedMemoryFIFO_t *fifo);
int consumerOpenFIFOBlock(char *fifoName, size_t fifoSizeBytes, sharedMemoryFIFO_t *fifo);
void writeFifo(void *src, size_t elementSize, int numElements, sharedMemoryFIFO_t *fifo);
void readFifo(void *dst, size_t elementSize, int numElements, sharedMemoryFIFO_t *fifo);
void cleanupProducer(sharedMemoryFIFO_t *fifo);
void cleanupConsumer(sharedMemoryFIFO_t *fifo);

#endif
`
}

// sharedMemFIFOHelperSource is the matching implementation stub; the
// build file compiles it only for the shmem variant.
func sharedMemFIFOHelperSource() string {
	return `#include "BerkeleySharedMemoryFIFO.h"
#include <fcntl.h>
#include <sys/mman.h>
#include <string.h>
#include <stdlib.h>
#include <stdio.h>

void initSharedMemoryFIFO(sharedMemoryFIFO_t *fifo) {
    fifo->srvSem = NULL;
    fifo->cliSem = NULL;
    fifo->fifoCount = NULL;
    fifo->fifoBlock = NULL;
    fifo->fifoBlockName = NULL;
    fifo->fifoSizeBytes = 0;
    fifo->fifoFD = -1;
}

int producerOpenInitFIFO(char *fifoName, size_t fifoSizeBytes, sharedMemoryFIFO_t *fifo) {
    fifo->fifoBlockName = fifoName;
    fifo->fifoSizeBytes = fifoSizeBytes;
    fifo->fifoFD = shm_open(fifoName, O_CREAT | O_RDWR, 0660);
    if (fifo->fifoFD < 0) { return -1; }
    if (ftruncate(fifo->fifoFD, (off_t) fifoSizeBytes) != 0) { return -1; }
    fifo->fifoBlock = mmap(NULL, fifoSizeBytes, PROT_READ | PROT_WRITE, MAP_SHARED, fifo->fifoFD, 0);
    return fifo->fifoBlock == MAP_FAILED ? -1 : 0;
}

int consumerOpenFIFOBlock(char *fifoName, size_t fifoSizeBytes, sharedMemoryFIFO_t *fifo) {
    fifo->fifoBlockName = fifoName;
    fifo->fifoSizeBytes = fifoSizeBytes;
    fifo->fifoFD = shm_open(fifoName, O_RDWR, 0660);
    if (fifo->fifoFD < 0) { return -1; }
    fifo->fifoBlock = mmap(NULL, fifoSizeBytes, PROT_READ | PROT_WRITE, MAP_SHARED, fifo->fifoFD, 0);
    return fifo->fifoBlock == MAP_FAILED ? -1 : 0;
}

void writeFifo(void *src, size_t elementSize, int numElements, sharedMemoryFIFO_t *fifo) {
    memcpy(fifo->fifoBlock, src, elementSize * (size_t) numElements);
}

void readFifo(void *dst, size_t elementSize, int numElements, sharedMemoryFIFO_t *fifo) {
    memcpy(dst, fifo->fifoBlock, elementSize * (size_t) numElements);
}

void cleanupProducer(sharedMemoryFIFO_t *fifo) {
    if (fifo->fifoBlock != NULL) { munmap(fifo->fifoBlock, fifo->fifoSizeBytes); }
    if (fifo->fifoBlockName != NULL) { shm_unlink(fifo->fifoBlockName); }
}

void cleanupConsumer(sharedMemoryFIFO_t *fifo) {
    if (fifo->fifoBlock != NULL) { munmap(fifo->fifoBlock, fifo->fifoSizeBytes); }
}
`
}

// emitTelemetryHelpers renders the optional telemetry collector header.
func emitTelemetryHelpers(designName string, parts []int) string {
	var sb strings.Builder
	guard := strings.ToUpper(designName) + "_TELEMETRY_HELPERS_H"
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n#include <stdint.h>\n#include <stdio.h>\n\n", guard, guard)
	fmt.Fprintf(&sb, "typedef struct {\n    uint64_t blocksProcessed[%d];\n    double rateMsps[%d];\n} %s_telemetry_t;\n\n",
		len(parts), len(parts), designName)
	fmt.Fprintf(&sb, "static inline void %s_telemetry_dump(FILE *f, %s_telemetry_t *t) {\n", designName, designName)
	for i, part := range parts {
		fmt.Fprintf(&sb, "    fprintf(f, \"partition %d: %%llu blocks, %%f Msps\\n\", (unsigned long long) t->blocksProcessed[%d], t->rateMsps[%d]);\n", part, i, i)
	}
	sb.WriteString("}\n")
	fmt.Fprintf(&sb, "\n#endif // %s\n", guard)

	return sb.String()
}

// emitPAPIHelpers renders the optional PAPI counter helper header.
func emitPAPIHelpers(designName string) string {
	var sb strings.Builder
	guard := strings.ToUpper(designName) + "_PAPI_HELPERS_H"
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n#include <papi.h>\n\n", guard, guard)
	sb.WriteString("static inline int papiStartCounters(int *events, int numEvents) {\n")
	sb.WriteString("    return PAPI_start_counters(events, numEvents);\n}\n\n")
	sb.WriteString("static inline int papiStopCounters(long long *values, int numEvents) {\n")
	sb.WriteString("    return PAPI_stop_counters(values, numEvents);\n}\n")
	fmt.Fprintf(&sb, "\n#endif // %s\n", guard)

	return sb.String()
}
