package emit

import (
	"fmt"
	"strings"

	"github.com/ucb-cyarp/vitis-sub000/core"
)

// emitBenchmark does not read d; the kernel depends on the partition
// list and the configuration.

// emitBenchmark produces the benchmark kernel header/source pair and
// the driver that spawns the partition threads (pinned per the
// partition->CPU map) and measures throughput.
func emitBenchmark(d *core.Design, designName string, sink Sink, parts []int, cfg MultiThreadConfig) error {
	kernelH := emitBenchmarkKernelHeader(designName)
	if err := sink.WriteFile(designName+"_benchmark_kernel.h", kernelH); err != nil {
		return err
	}
	if err := sink.WriteFile(designName+"_benchmark_kernel.cpp", emitBenchmarkKernelSource(designName, parts, cfg)); err != nil {
		return err
	}

	return sink.WriteFile(designName+"_benchmark_driver.cpp", emitBenchmarkDriver(designName, cfg))
}

func emitBenchmarkKernelHeader(designName string) string {
	var sb strings.Builder
	guard := strings.ToUpper(designName) + "_BENCHMARK_KERNEL_H"
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&sb, "void %s_benchmark_kernel(int trials, int stimLen);\n", designName)
	fmt.Fprintf(&sb, "\n#endif // %s\n", guard)

	return sb.String()
}

func emitBenchmarkKernelSource(designName string, parts []int, cfg MultiThreadConfig) string {
	var sb strings.Builder
	sb.WriteString("#include <pthread.h>\n#include <stdatomic.h>\n#include <cstdio>\n#include <cstdlib>\n")
	fmt.Fprintf(&sb, "extern \"C\" {\n#include %q\n}\n", designName+".h")
	fmt.Fprintf(&sb, "#include %q\n\n", designName+"_benchmark_kernel.h")

	fmt.Fprintf(&sb, "void %s_benchmark_kernel(int trials, int stimLen) {\n", designName)
	sb.WriteString("    atomic_bool stop;\n    atomic_init(&stop, false);\n")
	fmt.Fprintf(&sb, "    pthread_t threads[%d];\n", len(parts)+1)
	sb.WriteString("    pthread_attr_t attr;\n    pthread_attr_init(&attr);\n")
	if cfg.RealTime {
		sb.WriteString("    // request the real-time FIFO class at maximum priority\n")
		sb.WriteString("    pthread_attr_setschedpolicy(&attr, SCHED_FIFO);\n")
		sb.WriteString("    struct sched_param schedParam;\n")
		sb.WriteString("    schedParam.sched_priority = sched_get_priority_max(SCHED_FIFO);\n")
		sb.WriteString("    pthread_attr_setschedparam(&attr, &schedParam);\n")
		sb.WriteString("    pthread_attr_setinheritsched(&attr, PTHREAD_EXPLICIT_SCHED);\n")
	}
	for i, part := range parts {
		cpu, pinned := cfg.PartitionCPU[part]
		if pinned {
			fmt.Fprintf(&sb, "    {\n        cpu_set_t cpuset;\n        CPU_ZERO(&cpuset);\n        CPU_SET(%d, &cpuset);\n", cpu)
			sb.WriteString("        pthread_attr_setaffinity_np(&attr, sizeof(cpu_set_t), &cpuset);\n    }\n")
		}
		fmt.Fprintf(&sb, "    %s_partition%d_args_t args%d = {};\n", designName, part, part)
		fmt.Fprintf(&sb, "    args%d.stop = &stop;\n", part)
		fmt.Fprintf(&sb, "    pthread_create(&threads[%d], &attr, %s_partition%d_thread, &args%d);\n",
			i, designName, part, part)
	}
	fmt.Fprintf(&sb, "    pthread_create(&threads[%d], &attr, %s_io_thread, NULL);\n", len(parts), designName)
	sb.WriteString("    // trials * stimLen blocks are driven by the I/O thread\n")
	sb.WriteString("    (void) trials; (void) stimLen;\n")
	fmt.Fprintf(&sb, "    for (int i = 0; i <= %d; i++) { pthread_join(threads[i], NULL); }\n", len(parts))
	sb.WriteString("}\n")

	return sb.String()
}

func emitBenchmarkDriver(designName string, cfg MultiThreadConfig) string {
	var sb strings.Builder
	sb.WriteString("#include <cstdio>\n#include <cstdlib>\n")
	fmt.Fprintf(&sb, "#include %q\n\n", designName+"_benchmark_kernel.h")
	sb.WriteString("#ifndef STIM_LEN\n#define STIM_LEN 1000000\n#endif\n")
	sb.WriteString("#ifndef TRIALS\n#define TRIALS 10\n#endif\n\n")
	sb.WriteString("int main(int argc, char* argv[]) {\n")
	fmt.Fprintf(&sb, "    printf(\"%s multithreaded benchmark (%s I/O)\\n\");\n", designName, cfg.IO)
	fmt.Fprintf(&sb, "    %s_benchmark_kernel(TRIALS, STIM_LEN);\n", designName)
	sb.WriteString("    return 0;\n}\n")

	return sb.String()
}

// emitMakefile renders the build file listing the emitted sources and
// compile flags for the variant.
func emitMakefile(d *core.Design, designName string, parts []int, cfg MultiThreadConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Build file for %s (%s I/O variant)\n", designName, cfg.IO)
	sb.WriteString("CC = gcc\nCXX = g++\n")
	sb.WriteString("CFLAGS = -O3 -std=c11 -march=native -masm=att -pthread\n")
	sb.WriteString("CXXFLAGS = -O3 -std=c++11 -march=native -masm=att -pthread\n")
	libs := "-pthread"
	if cfg.IO == IOSharedMem {
		libs += " -lrt"
	}
	if cfg.PAPI {
		libs += " -lpapi"
	}
	fmt.Fprintf(&sb, "LIBS = %s\n\n", libs)

	var objs []string
	for _, part := range parts {
		objs = append(objs, fmt.Sprintf("%s_partition%d.o", designName, part))
	}
	objs = append(objs, fmt.Sprintf("%s_io_%s.o", designName, cfg.IO))
	if cfg.IO == IOSharedMem {
		objs = append(objs, "BerkeleySharedMemoryFIFO.o")
	}
	objs = append(objs, designName+"_benchmark_kernel.o", designName+"_benchmark_driver.o")

	fmt.Fprintf(&sb, "OBJS = %s\n\n", strings.Join(objs, " "))
	fmt.Fprintf(&sb, "all: %s_benchmark\n\n", designName)
	fmt.Fprintf(&sb, "%s_benchmark: $(OBJS)\n\t$(CXX) $(CXXFLAGS) -o $@ $(OBJS) $(LIBS)\n\n", designName)
	sb.WriteString("%.o: %.c\n\t$(CC) $(CFLAGS) -c -o $@ $<\n\n")
	sb.WriteString("%.o: %.cpp\n\t$(CXX) $(CXXFLAGS) -c -o $@ $<\n\n")
	fmt.Fprintf(&sb, "clean:\n\trm -f $(OBJS) %s_benchmark\n", designName)

	return sb.String()
}
