package bootstrap

// SchedulerHandoff is the "morph_into_scheduler(manager)" boundary
// described in spec.md §6: it takes ownership of a built Manager and
// never returns. This module does not implement a scheduler (out of
// scope per spec.md §1); the boot entry point is expected to assign
// this variable before calling it, the same way the teacher's
// kmain.Kmain wires goruntime.Init and hal.DetectHardware into the
// post-bootstrap handoff rather than inlining them. Grounded also on
// iansmith-mazarin's scheduler_bootstrap.go, the point in that repo
// where a freestanding Go kernel hands control to the Go scheduler once
// its own bootstrap phase is done.
var SchedulerHandoff func(*Manager) = func(*Manager) {
	panic(&handoffNotWired{})
}

type handoffNotWired struct{}

func (*handoffNotWired) Error() string {
	return "bootstrap.SchedulerHandoff was never assigned by the boot entry point"
}
