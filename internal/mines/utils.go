package mines

import (
	"time"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Rand is the random index source consumed by mine placement.
// [*math/rand/v2.Rand] satisfies it.
type Rand interface {
	IntN(n int) int
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
