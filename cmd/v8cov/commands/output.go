package commands

import (
	"io"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
)

// writeReport writes cov to path, or to stdout for "-". An empty format
// follows the file extension; stdout falls back to the configured format.
func (e *env) writeReport(stdout io.Writer, path, format string, compress bool, cov coverage.ProcessCov) error {
	if format == "" && path == report.StdioPath {
		format = e.cfg.Output.Format
	}

	codec, err := report.CodecFor(path, format, e.cfg.Output.Indent)
	if err != nil {
		return err
	}

	if _, isLZ4 := codec.(*report.LZ4Codec); (compress || e.cfg.Output.Compress) && !isLZ4 {
		codec = report.NewLZ4Codec(codec)
	}

	if path == report.StdioPath {
		return report.EncodeProcessCov(stdout, codec, cov)
	}

	return report.WriteProcessCov(path, codec, cov)
}
