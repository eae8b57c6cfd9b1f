// Package kernel holds the types shared by every subsystem of the memory
// bootstrap core: the error taxonomy and the abstract reporting boundary
// that the boot entry point (out of scope for this module) must supply.
package kernel

// Kind classifies an Error so that callers can decide whether a failure is
// locally recoverable, fatal to bootstrap, or a caller contract violation.
type Kind int

const (
	// KindNone is the zero value; never produced by this module.
	KindNone Kind = iota
	// KindInvalidArgument flags a caller contract violation (unsorted
	// occupied list, region outside the map, invalid buddy parameters).
	KindInvalidArgument
	// KindBadAlloc flags a resource that could not satisfy an allocation.
	KindBadAlloc
	// KindCannotMeetRequest flags placement-engine exhaustion; fatal
	// during bootstrap.
	KindCannotMeetRequest
	// KindCorruptMap flags firmware descriptors that contradict each
	// other. Always handled locally; never expected to escape this
	// module, but carried on Error so tests can assert on it.
	KindCorruptMap
	// KindOverflow flags arithmetic overflow in descriptor or request
	// math. Descriptor and request math handle it locally, by
	// invalidating an entry or returning KindBadAlloc;
	// firmware.Map.Validate reports it for a memory-map window that
	// overflows the address space.
	KindOverflow
	// KindAssertionFailure flags an internal invariant violation.
	KindAssertionFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindBadAlloc:
		return "bad_alloc"
	case KindCannotMeetRequest:
		return "cannot_meet_request"
	case KindCorruptMap:
		return "corrupt_map"
	case KindOverflow:
		return "overflow"
	case KindAssertionFailure:
		return "assertion_failure"
	default:
		return "none"
	}
}

// Error describes a kernel error. All kernel errors are package-level or
// call-site-constructed values of this struct rather than results of
// errors.New/fmt.Errorf: on the bootstrap path, before any allocator
// exists, we cannot assume the Go allocator is available to satisfy the
// hidden allocation errors.New would need for its interface value.
type Error struct {
	// Module names the subsystem that raised the error.
	Module string
	// Message is a short, human-readable description.
	Message string
	// Kind classifies the error per the taxonomy above.
	Kind Kind
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// New constructs an *Error. It is the one allocation-performing
// constructor in this package; call sites on genuinely allocation-free
// paths use package-level *Error variables instead (see the sentinel
// errors declared throughout kernel/resource and kernel/placement).
func New(module, message string, kind Kind) *Error {
	return &Error{Module: module, Message: message, Kind: kind}
}

// Reporter is the abstract logging/halt boundary described in spec.md §1
// and §6: this module never assumes a console, serial port, or any other
// concrete sink exists. The boot entry point supplies an implementation.
type Reporter interface {
	// Report emits a diagnostic message. Implementations must not block.
	Report(msg string)
	// Halt stops execution. Implementations never return.
	Halt()
}

// Assert reports msg through r, calls r.Halt, and then panics when cond
// is false and debugAssertEnabled is true (a nil r skips the report and
// the halt); otherwise it is a no-op, matching the teacher's
// debug_assert_enabled gate. It is the Go stand-in for the
// spec's AssertionFailure handling.
func Assert(r Reporter, debugAssertEnabled bool, cond bool, module, msg string) {
	if cond || !debugAssertEnabled {
		return
	}
	if r != nil {
		r.Report("assertion failed in " + module + ": " + msg)
		r.Halt()
	}
	panic(&Error{Module: module, Message: msg, Kind: KindAssertionFailure})
}
