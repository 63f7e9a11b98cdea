package ledger

import "fmt"

// ProgressObserver receives scan progress. fraction is in [0,1]. It is a
// side channel only and never influences classification.
type ProgressObserver interface {
	Progress(fraction float64, message string)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(fraction float64, message string)

// Progress implements ProgressObserver.
func (f ProgressFunc) Progress(fraction float64, message string) { f(fraction, message) }

// throttle forwards at most one notification per `every` rows.
type throttle struct {
	obs   ProgressObserver
	every int
	total int
}

func newThrottle(obs ProgressObserver, every, total int) *throttle {
	return &throttle{obs: obs, every: every, total: total}
}

func (t *throttle) row(n int) {
	if t.obs == nil || t.total == 0 || n%t.every != 0 || n == t.total {
		return
	}
	t.obs.Progress(float64(n)/float64(t.total), fmt.Sprintf("%d/%d linhas", n, t.total))
}

func (t *throttle) done() {
	if t.obs == nil {
		return
	}
	t.obs.Progress(1, fmt.Sprintf("%d/%d linhas", t.total, t.total))
}
