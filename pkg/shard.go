package translator

// eventSlice is the stride/offset shard of the event sequence assigned to
// this worker: positions where i % step == start. The external
// coordinator hands every worker a distinct rank, so the shards are
// disjoint and their union is the full sequence.
type eventSlice struct {
	start int
	step  int
}

func newEventSlice(rank int, workers int) eventSlice {
	return eventSlice{start: rank, step: workers}
}

// fullSlice owns every event. Used for shared-memory streams, where the
// facility library already distributes events among consumers.
func fullSlice() eventSlice {
	return eventSlice{start: 0, step: 1}
}

func (s eventSlice) owns(i int) bool {
	return i%s.step == s.start
}

// filter subselects the indexed timestamps belonging to this shard.
func (s eventSlice) filter(times []EventTime) []EventTime {
	if s.step == 1 && s.start == 0 {
		return times
	}
	out := make([]EventTime, 0, (len(times)+s.step-1)/s.step)
	for i := s.start; i < len(times); i += s.step {
		out = append(out, times[i])
	}
	return out
}
