package cli

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/client/client"
	"github.com/spf13/cobra"
)

// passRatio is the share of conditional downloads that must come back
// 304 for the benchmark to pass.
const passRatio = 0.95

var errBenchFailed = errors.New("cache hit ratio below 95%")

type benchResult struct {
	Total   int
	Hits    int
	Misses  int
	Elapsed time.Duration
}

func (r benchResult) HitRatio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Total)
}

func (a *App) benchCmd() *cobra.Command {
	var requests int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure how often an edge revalidation is answered with 304",
		Long: "Upload a small asset, then download it repeatedly the way an edge cache\n" +
			"would: the first request is unconditional, the rest send If-None-Match.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if requests < 1 {
				return errors.New("requests must be at least 1")
			}
			c := a.client()

			asset, err := c.Upload(cmd.Context(), client.UploadRequest{
				Filename: "bench.txt",
				MimeType: "text/plain",
				Body:     bytes.NewReader([]byte("Benchmark Data")),
			})
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}

			a.printf("Simulating %d requests from edge nodes...\n", requests)
			res := benchResult{Total: requests}
			for i := 0; i < requests; i++ {
				inm := ""
				if i > 0 {
					inm = asset.ETag
				}
				start := time.Now()
				d, err := c.Download(cmd.Context(), asset.ID, inm)
				res.Elapsed += time.Since(start)
				if err != nil {
					return fmt.Errorf("download %d: %w", i+1, err)
				}
				if d.NotModified {
					res.Hits++
				} else {
					res.Misses++
				}
			}

			a.printf("Total requests:     %d\n", res.Total)
			a.printf("Origin fetches:     %d\n", res.Misses)
			a.printf("Not modified (304): %d\n", res.Hits)
			a.printf("Avg response time:  %s\n", (res.Elapsed / time.Duration(res.Total)).Round(time.Microsecond))
			a.printf("Cache hit ratio:    %.1f%%\n", res.HitRatio()*100)

			if res.HitRatio() < passRatio {
				a.printf("FAIL\n")
				return errBenchFailed
			}
			a.printf("PASS\n")
			return nil
		},
	}
	cmd.Flags().IntVarP(&requests, "requests", "n", 100, "number of downloads")
	return cmd
}
