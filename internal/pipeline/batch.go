package pipeline

import (
	"context"

	"github.com/chartfact/chartfact/internal/loader"
	"github.com/chartfact/chartfact/internal/model"
	"github.com/chartfact/chartfact/internal/worker"
)

// FileResult is the outcome of extracting one document in a batch run.
type FileResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// fileJob wraps one document extraction for the worker pool.
type fileJob struct {
	index    int
	path     string
	kind     string
	loader   *loader.Loader
	pipeline *Pipeline
}

type fileJobResult struct {
	index  int
	result *FileResult
}

func (r *fileJobResult) Index() int { return r.index }
func (r *fileJobResult) Err() error { return r.result.Error }

func (j *fileJob) Execute(ctx context.Context) worker.Result {
	fragments, err := j.loader.LoadFile(j.path)
	if err != nil {
		return &fileJobResult{index: j.index, result: &FileResult{Path: j.path, Error: err}}
	}
	report, err := j.pipeline.Extract(ctx, fragments, j.kind)
	return &fileJobResult{index: j.index, result: &FileResult{Path: j.path, Report: report, Error: err}}
}

// ExtractFiles extracts each document independently and concurrently,
// producing one report per file in input order. Per-file failures are
// reported in the corresponding FileResult, never aborting the batch.
func (p *Pipeline) ExtractFiles(ctx context.Context, paths []string, kind string, ldr *loader.Loader, concurrency int) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := worker.NewPool(concurrency)
	pool.Start()
	for i, path := range paths {
		pool.Submit(&fileJob{
			index:    i,
			path:     path,
			kind:     kind,
			loader:   ldr,
			pipeline: p,
		})
	}

	results := pool.Wait()
	out := make([]*FileResult, len(results))
	for i, result := range results {
		out[i] = result.(*fileJobResult).result
	}
	return out
}
