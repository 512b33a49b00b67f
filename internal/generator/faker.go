package generator

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// faker produces standalone fake values. All randomness flows through
// one shared *rand.Rand so a run can be reproduced from a single seed.
type faker struct {
	rand    *rand.Rand
	counter int
}

func newFaker(r *rand.Rand) *faker {
	return &faker{rand: r}
}

var (
	firstNames = []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	domains    = []string{"example.com", "test.com", "demo.com", "mail.com"}
	words      = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa", "lambda", "sigma"}
)

func (f *faker) name() string {
	return firstNames[f.rand.Intn(len(firstNames))] + " " + lastNames[f.rand.Intn(len(lastNames))]
}

func (f *faker) email() string {
	f.counter++
	return fmt.Sprintf("user%d_%d@%s", f.counter, f.rand.Intn(100000), domains[f.rand.Intn(len(domains))])
}

func (f *faker) word() string {
	return words[f.rand.Intn(len(words))]
}

// text builds freeform text up to maxChars characters.
func (f *faker) text(maxChars int) string {
	var b strings.Builder
	for {
		w := f.word()
		if b.Len() > 0 {
			if b.Len()+1+len(w) > maxChars {
				break
			}
			b.WriteByte(' ')
		} else if len(w) > maxChars {
			return w[:maxChars]
		}
		b.WriteString(w)
	}
	return b.String()
}

func (f *faker) intBetween(min, max int64) int64 {
	if min >= max {
		return min
	}
	return min + f.rand.Int63n(max-min+1)
}

// floatBetween returns a uniform float in [min, max] rounded to two
// decimal digits.
func (f *faker) floatBetween(min, max float64) float64 {
	if min >= max {
		return math.Round(min*100) / 100
	}
	v := min + f.rand.Float64()*(max-min)
	return math.Round(v*100) / 100
}

func (f *faker) boolean() bool {
	return f.rand.Intn(2) == 1
}

// timestamp returns a random moment within the last year up to now.
func (f *faker) timestamp() time.Time {
	now := time.Now()
	span := int64(365 * 24 * time.Hour)
	return now.Add(-time.Duration(f.rand.Int63n(span)))
}

func (f *faker) uuid() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		f.rand.Uint32(),
		f.rand.Uint32()&0xffff,
		f.rand.Uint32()&0xffff,
		f.rand.Uint32()&0xffff,
		f.rand.Uint64()&0xffffffffffff,
	)
}
