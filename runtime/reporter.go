package runtime

import (
	"log"
	"strconv"

	"github.com/etnz/logfmt"

	"github.com/blockberries/minichain"
)

// ExtrinsicFailure describes one extrinsic whose call failed.
type ExtrinsicFailure struct {
	BlockNumber BlockNumber
	// Position of the extrinsic in its block (0-indexed).
	Index  int
	Caller AccountID
	Err    error
}

// Reporter receives per-extrinsic failures while a block executes.
// Reporting is a side channel: it never changes the block's result.
type Reporter interface {
	ExtrinsicFailed(ExtrinsicFailure)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ExtrinsicFailure)

func (f ReporterFunc) ExtrinsicFailed(failure ExtrinsicFailure) { f(failure) }

// MultiReporter fans a failure out to several reporters, in order.
type MultiReporter []Reporter

func (m MultiReporter) ExtrinsicFailed(failure ExtrinsicFailure) {
	for _, r := range m {
		r.ExtrinsicFailed(failure)
	}
}

// LogReporter writes one logfmt record per failure. A nil Logger
// uses the standard logger.
type LogReporter struct {
	Logger *log.Logger
}

func (r LogReporter) ExtrinsicFailed(failure ExtrinsicFailure) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Print(FormatFailure(failure))
}

// FormatFailure renders a failure as a logfmt record.
func FormatFailure(failure ExtrinsicFailure) string {
	rec := logfmt.Rec()
	rec = rec.Q("msg", "extrinsic failed")
	rec = rec.Q("block", strconv.FormatUint(uint64(failure.BlockNumber), 10))
	rec = rec.Q("extrinsic", strconv.Itoa(failure.Index))
	// Undecodable transactions have no caller.
	if failure.Caller != "" {
		rec = rec.Q("caller", failure.Caller)
	}
	if d, ok := minichain.IsDispatchError(failure.Err); ok {
		rec = rec.Q("module", d.Module)
		rec = rec.Q("kind", d.Kind)
	}
	if failure.Err != nil {
		rec = rec.Q("error", failure.Err.Error())
	}
	return rec.String()
}
