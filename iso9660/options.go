package iso9660

import "time"

// CompatibilityLevel selects the ECMA-119 name-length rules applied by the
// name canonicaliser (C3).
type CompatibilityLevel int

const (
	Level1 CompatibilityLevel = iota + 1
	Level2
	Level3
)

// CompatibilityFlags are independent bits governing how the name
// canonicaliser handles edge cases. They compose freely.
type CompatibilityFlags uint8

const (
	// LimitDirectories caps directory nesting depth at 8.
	LimitDirectories CompatibilityFlags = 1 << iota
	// TruncateFileNames allows shrinking over-long names instead of failing.
	TruncateFileNames
	// UpperCaseFileNames allows Level 1 case-folding of lowercase letters.
	UpperCaseFileNames
	// ResolveNameConflicts allows tilde/hash aliasing on collision.
	ResolveNameConflicts
	// StripIllegalDots drops surplus '.' characters instead of failing.
	StripIllegalDots
)

func (f CompatibilityFlags) has(bit CompatibilityFlags) bool { return f&bit != 0 }

// Mode selects the ISO-9660 sector data mode. Only Mode1 is implemented;
// constructing a builder with any other value fails with Unsupported.
type Mode int

const (
	Mode1 Mode = iota + 1
	Mode2Form1
	Mode2Form2
)

// Extensions is a bitfield of optional ISO-9660 extensions a caller may ask
// for. Of these, only ElTorito is functional: Udf and Apple fail at
// construction, and RockRidge/Joliet bits are accepted but have no effect.
type Extensions uint8

const (
	ExtNone      Extensions = 0
	ExtRockRidge Extensions = 1 << iota
	ExtJoliet
	ExtUdf
	ExtElTorito
	ExtApple
)

func (e Extensions) has(bit Extensions) bool { return e&bit != 0 }

// BuildOptions configures a Builder. Zero value is not valid: use
// DefaultOptions and override fields as needed.
type BuildOptions struct {
	Level      CompatibilityLevel
	Flags      CompatibilityFlags
	Mode       Mode
	Extensions Extensions

	// Clock supplies the wall-clock reading stamped on every Directory
	// Record whose entry has no RecordingTime. Unset volume-descriptor
	// date/times are not taken from it; they are written as "not
	// specified". It is read once per build. Defaults to time.Now when nil.
	Clock func() time.Time

	// GMTOffsetMinutes is the default (local - UTC) offset, in minutes,
	// applied to every timestamp of a Volume that does not specify its own
	// GMTOffsetMinutes.
	GMTOffsetMinutes int
}

// DefaultOptions returns the common configuration: Level 3, every
// compatibility flag enabled, Mode 1, no extensions.
func DefaultOptions() *BuildOptions {
	return &BuildOptions{
		Level: Level3,
		Flags: LimitDirectories | TruncateFileNames | UpperCaseFileNames | ResolveNameConflicts | StripIllegalDots,
		Mode:  Mode1,
	}
}

// validate checks the configuration invariants that must hold before any
// name canonicalisation or allocation begins.
func (o *BuildOptions) validate() error {
	if o.Mode != Mode1 {
		return newUnsupported("BuildOptions.Mode", "mode %d is not supported; only Mode1 is implemented", o.Mode)
	}
	if o.Extensions.has(ExtUdf) {
		return newUnsupported("BuildOptions.Extensions", "Udf extension is not supported")
	}
	if o.Extensions.has(ExtApple) {
		return newUnsupported("BuildOptions.Extensions", "Apple extension is not supported")
	}
	return nil
}

func (o *BuildOptions) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}
