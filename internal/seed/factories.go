package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"strider/internal/concepts/posting"

	"github.com/brianvoe/gofakeit/v6"
)

var backgroundColors = []string{"", "", "#fde68a", "#bfdbfe", "#fecaca", "teal", "lavender"}

// Factory produces fake field values. A fixed seed gives the same data set every run.
type Factory struct {
	faker *gofakeit.Faker
	rng   *rand.Rand
	used  map[string]struct{}
}

// NewFactory creates a Factory. Seed 0 picks a random seed.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
		used:  make(map[string]struct{}),
	}
}

// Username returns a valid username not handed out before by this factory.
func (f *Factory) Username() string {
	for {
		base := strings.ToLower(f.faker.FirstName() + "_" + f.faker.LastName())
		base = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
				return r
			}
			return -1
		}, base)
		if len(base) > 24 {
			base = base[:24]
		}
		name := fmt.Sprintf("%s%d", base, f.rng.Intn(1000))
		if _, dup := f.used[name]; dup {
			continue
		}
		f.used[name] = struct{}{}
		return name
	}
}

// StepSize is a stride length such as "0.72m".
func (f *Factory) StepSize() string {
	return fmt.Sprintf("%.2fm", 0.55+f.rng.Float64()*0.35)
}

// PostContent is one to three sentences about a walk or a run.
func (f *Factory) PostContent() string {
	return f.faker.Sentence(6 + f.rng.Intn(12))
}

// PostOptions picks a background color, often none.
func (f *Factory) PostOptions() *posting.PostOptions {
	color := backgroundColors[f.rng.Intn(len(backgroundColors))]
	if color == "" {
		return nil
	}
	return &posting.PostOptions{BackgroundColor: color}
}

// CommentContent is a short reply.
func (f *Factory) CommentContent() string {
	return f.faker.Phrase()
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.rng.Float64() < p
}

// Intn exposes the factory's deterministic source.
func (f *Factory) Intn(n int) int {
	return f.rng.Intn(n)
}
