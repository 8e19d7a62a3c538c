package domain

// EndConditionKind names the variant of an EndCondition.
type EndConditionKind string

const (
	EndTransportNWithinTime           EndConditionKind = "transport_n_within_time"
	EndTransportNWithMaxWait          EndConditionKind = "transport_n_with_max_wait"
	EndTransportNWithinTimeAndMaxWait EndConditionKind = "transport_n_within_time_and_max_wait"
	EndTransportNWithinMoves          EndConditionKind = "transport_n_within_moves"
	EndDemo                           EndConditionKind = "demo"
)

// EndCondition is a challenge's termination rule. Kind selects which of
// the parameter fields are meaningful; Demo uses none of them.
type EndCondition struct {
	Kind EndConditionKind
	N    int
	T    float64 // seconds
	W    float64 // seconds
	M    int     // moves
}

// TransportNWithinTime succeeds once N have been transported inside T
// seconds, fails once T has elapsed without it.
func TransportNWithinTime(n int, t float64) EndCondition {
	return EndCondition{Kind: EndTransportNWithinTime, N: n, T: t}
}

// TransportNWithMaxWait fails the instant any wait exceeds W, succeeds
// once N have been transported without that happening.
func TransportNWithMaxWait(n int, w float64) EndCondition {
	return EndCondition{Kind: EndTransportNWithMaxWait, N: n, W: w}
}

// TransportNWithinTimeAndMaxWait is the conjunction of the time and
// max-wait conditions.
func TransportNWithinTimeAndMaxWait(n int, t, w float64) EndCondition {
	return EndCondition{Kind: EndTransportNWithinTimeAndMaxWait, N: n, T: t, W: w}
}

// TransportNWithinMoves succeeds once N have been transported within M
// elevator moves, fails once more than M moves have been spent without it.
func TransportNWithinMoves(n, m int) EndCondition {
	return EndCondition{Kind: EndTransportNWithinMoves, N: n, M: m}
}

// DemoEndCondition never terminates; used for open-ended play.
func DemoEndCondition() EndCondition {
	return EndCondition{Kind: EndDemo}
}

// Outcome is the tri-state result of evaluating an end condition.
type Outcome int

const (
	// OutcomePending means the challenge has not yet been decided.
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// Evaluate is the pure end-condition oracle: a function of the current
// stats only, with no side effects and no dependency on wall time.
func Evaluate(ec EndCondition, stats Stats) Outcome {
	switch ec.Kind {
	case EndTransportNWithinTime:
		if stats.TransportedCount >= ec.N && stats.ElapsedTime <= ec.T {
			return OutcomeSucceeded
		}
		if stats.ElapsedTime > ec.T && stats.TransportedCount < ec.N {
			return OutcomeFailed
		}
		return OutcomePending

	case EndTransportNWithMaxWait:
		if stats.MaxWaitTime > ec.W {
			return OutcomeFailed
		}
		if stats.TransportedCount >= ec.N && stats.MaxWaitTime <= ec.W {
			return OutcomeSucceeded
		}
		return OutcomePending

	case EndTransportNWithinTimeAndMaxWait:
		time := Evaluate(TransportNWithinTime(ec.N, ec.T), stats)
		wait := Evaluate(TransportNWithMaxWait(ec.N, ec.W), stats)
		if time == OutcomeFailed || wait == OutcomeFailed {
			return OutcomeFailed
		}
		if time == OutcomeSucceeded && wait == OutcomeSucceeded {
			return OutcomeSucceeded
		}
		return OutcomePending

	case EndTransportNWithinMoves:
		if stats.TransportedCount >= ec.N && stats.MoveCount <= ec.M {
			return OutcomeSucceeded
		}
		if stats.MoveCount > ec.M && stats.TransportedCount < ec.N {
			return OutcomeFailed
		}
		return OutcomePending

	default: // EndDemo
		return OutcomePending
	}
}
