package memory

// journal records how to revert every write of one unit of work.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	j.undo = append(j.undo, fn)
}

// rollback reverts the recorded writes newest first.
func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// put writes m[k] = v and journals the previous state of k.
func put[K comparable, V any](j *journal, m map[K]V, k K, v V) {
	prev, existed := m[k]
	j.record(func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
	m[k] = v
}
