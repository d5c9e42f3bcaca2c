package sim

// An Engine is a unit that keeps the discrete event simulation running.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes all the events until no event is left in the queue.
	Run() error

	// Step processes the single next event in the queue. It returns false
	// when the queue is drained and nothing was processed.
	//
	// Step is what makes a blocked software flow expressible: the capture
	// session models the processor's interrupt-yielding wait by stepping
	// the engine until an interrupt handler has run.
	Step() (bool, error)

	// EventCount returns the number of events that are not yet triggered.
	EventCount() int
}
