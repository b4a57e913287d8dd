// Command lce fits a local collective embedding on CSV matrices and
// optionally scores held-out documents against the label view.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/lce"
	"github.com/nozzle/lce/eval"
	"github.com/nozzle/lce/norm"
	"github.com/nozzle/lce/tfidf"
)

var flags struct {
	docs       string
	labels     string
	testDocs   string
	testLabels string
	outputDir  string

	rank        int
	alpha       float64
	beta        float64
	lambda      float64
	epsilon     float64
	maxIter     int
	neighbors   int
	binaryGraph bool
	noGraph     bool
	useTFIDF    bool
	seed        int64
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:   "lce",
	Short: "Fit a local collective embedding on two row-aligned CSV matrices",
	Long: "lce jointly factorizes a document matrix and a label matrix into a " +
		"shared non-negative embedding, optionally smoothed over a " +
		"nearest-neighbor similarity graph, and can rank labels for held-out " +
		"documents.",
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flags.docs, "docs", "", "training document matrix CSV (required)")
	rootCmd.Flags().StringVar(&flags.labels, "labels", "", "training label matrix CSV (required)")
	rootCmd.Flags().StringVar(&flags.testDocs, "test-docs", "", "held-out document matrix CSV")
	rootCmd.Flags().StringVar(&flags.testLabels, "test-labels", "", "held-out label matrix CSV for NDCG")
	rootCmd.Flags().StringVar(&flags.outputDir, "output", ".", "directory for factor CSVs")
	rootCmd.Flags().IntVar(&flags.rank, "rank", 20, "latent dimensionality")
	rootCmd.Flags().Float64Var(&flags.alpha, "alpha", 0.5, "document view weight in [0,1]")
	rootCmd.Flags().Float64Var(&flags.beta, "beta", 0.05, "graph regularization strength")
	rootCmd.Flags().Float64Var(&flags.lambda, "lambda", 0.5, "Tikhonov regularization strength")
	rootCmd.Flags().Float64Var(&flags.epsilon, "epsilon", 1e-4, "convergence threshold")
	rootCmd.Flags().IntVar(&flags.maxIter, "max-iter", 200, "iteration cap")
	rootCmd.Flags().IntVar(&flags.neighbors, "neighbors", 10, "neighbor count for the similarity graph")
	rootCmd.Flags().BoolVar(&flags.binaryGraph, "binary-graph", false, "binarize graph edges")
	rootCmd.Flags().BoolVar(&flags.noGraph, "no-graph", false, "disable graph regularization")
	rootCmd.Flags().BoolVar(&flags.useTFIDF, "tfidf", false, "apply TF-IDF weighting to document counts")
	rootCmd.Flags().Int64Var(&flags.seed, "seed", 42, "random seed")
	rootCmd.Flags().BoolVar(&flags.verbose, "verbose", false, "log per-iteration objectives")

	_ = rootCmd.MarkFlagRequired("docs")
	_ = rootCmd.MarkFlagRequired("labels")
}

func run(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	logger := zap.NewNop()
	if flags.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	xs, err := loadCSV(flags.docs)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	xu, err := loadCSV(flags.labels)
	if err != nil {
		return fmt.Errorf("loading labels: %w", err)
	}

	var xsTest *mat.Dense
	if flags.testDocs != "" {
		if xsTest, err = loadCSV(flags.testDocs); err != nil {
			return fmt.Errorf("loading held-out documents: %w", err)
		}
	}

	if flags.useTFIDF {
		weights := tfidf.Fit(xs)
		if xs, err = weights.Transform(xs); err != nil {
			return err
		}
		if xsTest != nil {
			if xsTest, err = weights.Transform(xsTest); err != nil {
				return err
			}
		}
	}

	xs = norm.Rows(xs)
	if xsTest != nil {
		xsTest = norm.Rows(xsTest)
	}

	config := lce.DefaultConfig()
	config.Rank = flags.rank
	config.Alpha = flags.alpha
	config.Beta = flags.beta
	config.Lambda = flags.lambda
	config.Epsilon = flags.epsilon
	config.MaxIter = flags.maxIter
	config.NNeighbors = flags.neighbors
	config.BinaryGraph = flags.binaryGraph
	config.UseGraph = !flags.noGraph
	config.Seed = flags.seed
	config.Verbose = flags.verbose
	config.Logger = logger

	bar := progressbar.Default(int64(flags.maxIter), "factorizing")
	config.ProgressCallback = func(iteration, total int) {
		_ = bar.Set(iteration)
	}

	model := lce.New(config)
	if err := model.Fit(xs, xu); err != nil {
		return err
	}
	_ = bar.Finish()

	obj := model.Objective()
	fmt.Println(fitSummary(obj, flags.maxIter))

	for name, factor := range map[string]*mat.Dense{
		"W.csv":  model.W(),
		"Hs.csv": model.Hs(),
		"Hu.csv": model.Hu(),
	} {
		if err := saveCSV(filepath.Join(flags.outputDir, name), factor); err != nil {
			return fmt.Errorf("saving %s: %w", name, err)
		}
	}

	if xsTest != nil {
		scores, err := model.Score(xsTest)
		if err != nil {
			return err
		}
		if err := saveCSV(filepath.Join(flags.outputDir, "scores.csv"), scores); err != nil {
			return err
		}
		if flags.testLabels != "" {
			truth, err := loadCSV(flags.testLabels)
			if err != nil {
				return fmt.Errorf("loading held-out labels: %w", err)
			}
			ndcg, err := eval.NDCG(scores, truth)
			if err != nil {
				return err
			}
			fmt.Printf("held-out NDCG: %.4f\n", ndcg)
		}
	}

	return nil
}

// fitSummary describes how the run ended. Stopping at the iteration cap is
// a normal termination, not convergence.
func fitSummary(objective []float64, maxIter int) string {
	last := objective[len(objective)-1]
	if len(objective) < maxIter {
		return fmt.Sprintf("converged after %d iterations, objective %.6g", len(objective), last)
	}
	return fmt.Sprintf("stopped at the iteration cap (%d), objective %.6g", maxIter, last)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadCSV loads a matrix from a CSV file (no header, numeric values only).
func loadCSV(filename string) (*mat.Dense, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", filename)
	}

	rows := len(records)
	cols := len(records[0])
	data := make([]float64, 0, rows*cols)
	for i, record := range records {
		if len(record) != cols {
			return nil, fmt.Errorf("%s: row %d has %d columns, want %d", filename, i, len(record), cols)
		}
		for j, val := range record {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d, col %d: %w", filename, i, j, err)
			}
			data = append(data, f)
		}
	}

	return mat.NewDense(rows, cols, data), nil
}

// saveCSV writes a matrix to a CSV file.
func saveCSV(filename string, m *mat.Dense) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	rows, cols := m.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'f', 6, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
