package shutdown

// Please add the dependencies if you add your own priority here.
// Otherwise investigating deadlocks at shutdown is much more complicated.

const (
	PriorityCloseDatabase      = iota // no dependencies
	PriorityGovernance                // depends on PriorityCloseDatabase
	PriorityResolutionTicker          // depends on PriorityGovernance
	PriorityTabSync                   // depends on PriorityGovernance
	PriorityRestAPI                   // depends on PriorityGovernance
	PriorityStatusReport
	PriorityPrometheus
)
