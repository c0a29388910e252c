// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kinds holds the per-locus error taxonomy used by estimate and
// orchestrate. These are kinds, not
// hierarchical error types: callers switch on Kind() rather than using
// errors.As against a family of structs.
package kinds

import "fmt"

// Kind classifies why a single locus produced no call. Only FatalSetup
// ever terminates the process; everything else causes the locus to be
// skipped or emitted with an absent call.
type Kind int

const (
	// Unknown is the zero value; plain errors not tagged with a Kind
	// report Unknown.
	Unknown Kind = iota
	// InvalidInput: malformed locus row, empty motif, non-ACGT motif.
	InvalidInput
	// CoordinateOutOfRange: reference fetch failed.
	CoordinateOutOfRange
	// UnknownContig: contig absent from reference.
	UnknownContig
	// FlankTooShort: fetched flank shorter than flank_size.
	FlankTooShort
	// InsufficientReads: fewer than min_reads usable reads.
	InsufficientReads
	// PloidyUnresolved: sex chromosome with sex_chroms=NONE.
	PloidyUnresolved
	// EstimatorFailure: alignment kernel saturated, or the hill-climb
	// safety cap triggered.
	EstimatorFailure
	// FatalSetup: cannot open reference, reads, or loci; aborts the run.
	FatalSetup
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case CoordinateOutOfRange:
		return "CoordinateOutOfRange"
	case UnknownContig:
		return "UnknownContig"
	case FlankTooShort:
		return "FlankTooShort"
	case InsufficientReads:
		return "InsufficientReads"
	case PloidyUnresolved:
		return "PloidyUnresolved"
	case EstimatorFailure:
		return "EstimatorFailure"
	case FatalSetup:
		return "FatalSetup"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with a message. It satisfies the error interface.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

// New creates a *Error for the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind tagged on err, or Unknown if err is nil or
// untagged.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return Unknown
}

// Fatal reports whether err (if any) should abort the whole process
// rather than just skip the current locus.
func Fatal(err error) bool {
	return KindOf(err) == FatalSetup
}
