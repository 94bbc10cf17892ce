package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/semaphore"
)

// File is an upload held in memory.
type File struct {
	Name string
	Data []byte
}

// Outcome is the scan of one File.
type Outcome struct {
	Name    string
	Results []json.RawMessage
	Err     error
}

// ScanBatch uploads files with at most maxConcurrency requests in flight.
// Outcomes are returned in the order of files.
func ScanBatch(ctx context.Context, up Uploader, files []File, maxConcurrency int64) []Outcome {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	sem := semaphore.NewWeighted(maxConcurrency)
	outcomes := make([]Outcome, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		outcomes[i].Name = f.Name
		if err := ctx.Err(); err != nil {
			outcomes[i].Err = err
			continue
		}

		// Acquire semaphore to limit concurrency
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i].Results, outcomes[i].Err = up.Scan(ctx, f.Name, bytes.NewReader(f.Data))
		}(i, f)
	}

	wg.Wait()
	return outcomes
}
