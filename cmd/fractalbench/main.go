// Command fractalbench measures frame render time for each partition
// strategy and worker count.
//
// The reference workload is an 800x600 Mandelbrot frame centered at
// (-0.7, 0) with 0.0035 units per pixel and 50 iterations.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/fractal"
)

func main() {
	var (
		runs     = flag.Int("runs", 1000, "frames rendered per configuration")
		width    = flag.Int("width", 800, "frame width")
		height   = flag.Int("height", 600, "frame height")
		maxIter  = flag.Int("max-iter", fractal.DefaultMaxIter, "iteration cap")
		workers  = flag.String("workers", "", "comma-separated worker counts (default: 1,2,4,... up to GOMAXPROCS)")
		strategy = flag.String("strategy", "all", "rows, tiles or all")
		lang     = flag.String("lang", "en", "language for number formatting")
	)
	flag.Parse()

	tag, err := language.Parse(*lang)
	if err != nil {
		log.Fatalf("Invalid language: %v", err)
	}
	counts, err := parseWorkers(*workers, runtime.GOMAXPROCS(0))
	if err != nil {
		log.Fatalf("Invalid workers: %v", err)
	}
	strategies, err := parseStrategies(*strategy)
	if err != nil {
		log.Fatalf("Invalid strategy: %v", err)
	}

	params := fractal.DefaultParams()
	params.MaxIter = *maxIter

	p := message.NewPrinter(tag)
	for _, s := range strategies {
		for _, n := range counts {
			res, err := bench(*width, *height, n, s, params, *runs)
			if err != nil {
				log.Fatalf("Benchmark failed: %v", err)
			}
			res.report(p)
		}
	}
}

// result is one benchmark configuration and its timing.
type result struct {
	strategy fractal.Strategy
	workers  int
	width    int
	height   int
	runs     int
	elapsed  time.Duration
}

func bench(width, height, workers int, s fractal.Strategy, params fractal.Params, runs int) (result, error) {
	e, err := fractal.New(width, height,
		fractal.WithWorkers(workers),
		fractal.WithStrategy(s),
		fractal.WithParams(params))
	if err != nil {
		return result{}, err
	}
	defer e.Close()

	// Warm up the pool and palette cache.
	if _, err := e.RenderFrame(0, 0); err != nil {
		return result{}, err
	}

	start := time.Now()
	for range runs {
		if _, err := e.RenderFrame(0, 0); err != nil {
			return result{}, err
		}
	}

	return result{
		strategy: s,
		workers:  workers,
		width:    width,
		height:   height,
		runs:     runs,
		elapsed:  time.Since(start),
	}, nil
}

func (r result) perRun() time.Duration {
	if r.runs == 0 {
		return 0
	}
	return r.elapsed / time.Duration(r.runs)
}

func (r result) pixelsPerSecond() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.width*r.height*r.runs) / r.elapsed.Seconds()
}

func (r result) report(p *message.Printer) {
	p.Fprintf(os.Stdout, "Benchmarking `%s` with %d workers:\n", r.strategy, r.workers)
	p.Fprintf(os.Stdout, "  Runs: %6d, Infos: definition %dx%d\n", r.runs, r.width, r.height)
	p.Fprintf(os.Stdout, "  Runs: %6d, Time elapsed: %6.3f s, Time/Run: %6.1f ms, Throughput: %.0f pixels/s\n",
		r.runs, r.elapsed.Seconds(), float64(r.perRun())/float64(time.Millisecond), r.pixelsPerSecond())
}

// parseWorkers parses a comma-separated list of worker counts. An empty
// list yields powers of two up to limit, plus limit itself.
func parseWorkers(s string, limit int) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		var counts []int
		for n := 1; n < limit; n *= 2 {
			counts = append(counts, n)
		}
		return append(counts, max(limit, 1)), nil
	}

	var counts []int
	for field := range strings.SplitSeq(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("worker count %d must be positive", n)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func parseStrategies(s string) ([]fractal.Strategy, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return []fractal.Strategy{fractal.RowBands, fractal.InterleavedTiles}, nil
	}
	st, err := fractal.ParseStrategy(s)
	if err != nil {
		return nil, err
	}
	return []fractal.Strategy{st}, nil
}
