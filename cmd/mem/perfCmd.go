package mem

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/vmIPC/cmd/util"
	"github.com/ValentinKolb/vmIPC/rpc/client"
	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for vmIPC servers",
		Long:    "Performance testing tool for vmIPC servers. The tests write to the memory region starting at --base, do not run them against a machine whose memory matters.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfBaseAddr   uint32 = 0x00100000
	perfNumThreads        = 10
	perfAddrSpread        = 100
	perfBatchSize         = 64
	perfSkip              = make([]string, 0)
)

// perfTest is a single benchmark, name is also the value used by --skip
type perfTest struct {
	name string
	op   func(counter int) error
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. read32,batch)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "batch-size"
	perfTestCmd.Flags().Int(key, 64, util.WrapString("How many commands the batch tests send per request"))
	key = "addresses"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different addresses (8 bytes apart) to use for the tests"))
	key = "base"
	perfTestCmd.Flags().String(key, "0x00100000", util.WrapString("First address of the memory region used by the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfAddrSpread = viper.GetInt("addresses")
	perfBatchSize = viper.GetInt("batch-size")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	base, err := util.ParseAddress(viper.GetString("base"))
	if err != nil {
		return err
	}
	perfBaseAddr = base

	if perfAddrSpread < 1 || perfBatchSize < 1 || perfBatchSize > common.MaxBatchCount {
		return fmt.Errorf("addresses and batch-size must be positive (batch-size at most %d)", common.MaxBatchCount)
	}
	return checkBatchSize(perfBatchSize, util.GetClientConfig().MaxRequestSize)
}

// checkBatchSize fails if a batch test request of size commands would exceed limit bytes
func checkBatchSize(size, limit int) error {
	if limit <= 0 {
		limit = common.DefaultMaxRequestSize
	}
	for _, b := range []*client.Batch{newReadBatch(0, size), newMixedBatch(0, size)} {
		if reqSize := b.RequestSize(); reqSize > limit {
			return fmt.Errorf("batch-size %d needs requests of %d bytes, the limit is %d bytes (max-request-size)", size, reqSize, limit)
		}
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for vmIPC servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Batch size: %d\n", perfNumThreads, perfBatchSize)
	fmt.Println()

	fmt.Println("starting tests...")

	tests := []perfTest{
		{"read32", func(i int) error {
			_, err := ipcClient.Read32(getAddr(i))
			return err
		}},
		{"write32", func(i int) error {
			return ipcClient.Write32(getAddr(i), uint32(i))
		}},
		{"read64", func(i int) error {
			_, err := ipcClient.Read64(getAddr(i))
			return err
		}},
		{"batch-read", func(i int) error {
			_, err := ipcClient.Exec(newReadBatch(i, perfBatchSize))
			return err
		}},
		{"batch-mixed", func(i int) error {
			_, err := ipcClient.Exec(newMixedBatch(i, perfBatchSize))
			return err
		}},
	}

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, test := range tests {
		test := test
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(test.name) {
				return
			}

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					if err := test.op(counter); err != nil {
						log.Printf("(%s) - error: %v\n", test.name, err)
					}
					counter++
				}
			})
		})

		results[test.name] = result
		printResult(test.name, result)
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// getAddr returns the i-th test address (with wraparound)
func getAddr(i int) uint32 {
	return perfBaseAddr + uint32(i%perfAddrSpread)*8
}

// newReadBatch creates the batch-read request: size reads of 64 bit starting at the i-th address
func newReadBatch(i, size int) *client.Batch {
	b := client.NewBatch()
	for j := 0; j < size; j++ {
		b.Read64(getAddr(i + j))
	}
	return b
}

// newMixedBatch creates the batch-mixed request: alternating 32 bit writes and reads
func newMixedBatch(i, size int) *client.Batch {
	b := client.NewBatch()
	for j := 0; j < size; j++ {
		if j%2 == 0 {
			b.Write32(getAddr(i+j), uint32(j))
		} else {
			b.Read32(getAddr(i + j))
		}
	}
	return b
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoint", "Transport", "TimeoutSec", "RetryCount",
		"Threads", "BatchSize", "Addresses",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Endpoint,
			viper.GetString("transport"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfBatchSize),
			strconv.Itoa(perfAddrSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
