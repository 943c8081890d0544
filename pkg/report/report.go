// Package report moves coverage reports between files and memory. It reads
// the files written by NODE_V8_COVERAGE or Profiler.takePreciseCoverage,
// optionally compressed or in YAML, guards their size and checks them
// against the report schema before they reach the merge engine.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/safeconv"
)

// StdioPath reads from stdin or writes to stdout.
const StdioPath = "-"

// DefaultPattern matches the files written by NODE_V8_COVERAGE.
const DefaultPattern = "coverage-*.json"

// Sentinel errors.
var (
	// ErrInputTooLarge is returned when a report exceeds ReadOptions.MaxBytes.
	ErrInputTooLarge = errors.New("input exceeds size limit")
	// ErrNoReports is returned when a directory holds no matching report.
	ErrNoReports = errors.New("no coverage reports found")
)

// ReadOptions controls how reports are read.
type ReadOptions struct {
	// MaxBytes bounds the decompressed size of one report. Zero means no limit.
	MaxBytes uint64
	// Validate checks the report against the schema and the structural
	// rules of coverage.ValidateProcessCov.
	Validate bool
}

// ReadProcessCov reads the report at path, or stdin for "-". The codec is
// chosen from the file extension.
func ReadProcessCov(path string, opts ReadOptions) (coverage.ProcessCov, error) {
	codec, err := CodecFor(path, "", "")
	if err != nil {
		return coverage.ProcessCov{}, err
	}

	if path == StdioPath {
		return DecodeProcessCov(os.Stdin, codec, opts)
	}

	file, err := os.Open(path)
	if err != nil {
		return coverage.ProcessCov{}, fmt.Errorf("open report: %w", err)
	}
	defer file.Close()

	cov, err := DecodeProcessCov(file, codec, opts)
	if err != nil {
		return coverage.ProcessCov{}, fmt.Errorf("%s: %w", path, err)
	}

	return cov, nil
}

// ReadProcessCovs reads reports in parallel. The result keeps the order of
// paths.
func ReadProcessCovs(paths []string, opts ReadOptions) ([]coverage.ProcessCov, error) {
	covs := make([]coverage.ProcessCov, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for idx, path := range paths {
		g.Go(func() error {
			cov, err := ReadProcessCov(path, opts)
			if err != nil {
				return err
			}

			covs[idx] = cov

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return covs, nil
}

// LoadDir reads every report of dir matching pattern (DefaultPattern when
// empty), in file name order.
func LoadDir(dir, pattern string, opts ReadOptions) ([]coverage.ProcessCov, error) {
	paths, err := MatchDir(dir, pattern)
	if err != nil {
		return nil, err
	}

	return ReadProcessCovs(paths, opts)
}

// MatchDir lists the reports of dir matching pattern (DefaultPattern when
// empty), sorted by file name.
func MatchDir(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("match reports: %w", err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s matching %s", ErrNoReports, dir, pattern)
	}

	slices.Sort(paths)

	return paths, nil
}

// DecodeProcessCov reads one report from r.
func DecodeProcessCov(r io.Reader, codec Codec, opts ReadOptions) (coverage.ProcessCov, error) {
	if compressed, ok := codec.(*LZ4Codec); ok {
		r = lz4.NewReader(r)
		codec = compressed.Inner
	}

	data, err := readLimited(r, opts.MaxBytes)
	if err != nil {
		return coverage.ProcessCov{}, err
	}

	if _, isJSON := codec.(*JSONCodec); isJSON && opts.Validate {
		schemaErr := ValidateSchema(data)
		if schemaErr != nil {
			return coverage.ProcessCov{}, schemaErr
		}
	}

	var cov coverage.ProcessCov

	err = codec.Decode(bytes.NewReader(data), &cov)
	if err != nil {
		return coverage.ProcessCov{}, err
	}

	if opts.Validate {
		err = coverage.ValidateProcessCov(&cov)
		if err != nil {
			return coverage.ProcessCov{}, err
		}
	}

	return cov, nil
}

// readLimited reads r fully, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit uint64) ([]byte, error) {
	if limit == 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read report: %w", err)
		}

		return data, nil
	}

	maxBytes := safeconv.ClampUint64ToInt64(limit)
	if maxBytes < safeconv.MaxInt64 {
		maxBytes++
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	if uint64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, limit)
	}

	return data, nil
}

// WriteProcessCov writes cov to path, or stdout for "-".
func WriteProcessCov(path string, codec Codec, cov coverage.ProcessCov) error {
	if path == StdioPath {
		return EncodeProcessCov(os.Stdout, codec, cov)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	err = EncodeProcessCov(file, codec, cov)

	closeErr := file.Close()
	if err != nil || closeErr != nil {
		return errors.Join(err, closeErr)
	}

	return nil
}

// EncodeProcessCov writes cov to w.
func EncodeProcessCov(w io.Writer, codec Codec, cov coverage.ProcessCov) error {
	if cov.Result == nil {
		cov.Result = []coverage.ScriptCov{}
	}

	err := codec.Encode(w, cov)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return nil
}
