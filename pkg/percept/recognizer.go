package percept

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/teslashibe/go-walle/pkg/directive"
)

// Detector produces raw observations from one perception tier.
type Detector interface {
	Detect() ([]Observation, error)
}

// Recognizer is the perception collaborator consumed by Query and Grab
// directives. It tries the remote tier first, then the local camera tier,
// then simulation, so a flaky network or missing camera degrades instead of
// failing.
type Recognizer struct {
	profiles map[string]Profile
	remote   Detector
	local    Detector
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithRemote sets the remote (cloud) detector tier.
func WithRemote(d Detector) Option { return func(r *Recognizer) { r.remote = d } }

// WithLocal sets the local camera detector tier.
func WithLocal(d Detector) Option { return func(r *Recognizer) { r.local = d } }

// WithProfiles overrides the color map.
func WithProfiles(p map[string]Profile) Option { return func(r *Recognizer) { r.profiles = p } }

// WithSeed pins the simulation tier's randomness for tests.
func WithSeed(seed int64) Option {
	return func(r *Recognizer) { r.rng = rand.New(rand.NewSource(seed)) }
}

// NewRecognizer builds a recognizer. With no detector options it runs in
// pure simulation.
func NewRecognizer(logger *slog.Logger, opts ...Option) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recognizer{
		profiles: DefaultProfiles,
		logger:   logger.With("component", "percept"),
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observations returns the current detections from the best available tier.
func (r *Recognizer) Observations() []Observation {
	for _, tier := range []Detector{r.remote, r.local} {
		if tier == nil {
			continue
		}
		obs, err := tier.Detect()
		if err != nil {
			r.logger.Warn("detector tier failed", "error", err)
			continue
		}
		if len(obs) > 0 {
			return obs
		}
	}
	return r.simulate()
}

// Locate finds one labeled object, resolving aliases first.
func (r *Recognizer) Locate(label string) (Observation, bool) {
	resolved := ResolveLabel(r.profiles, label)
	if resolved == "" {
		resolved = strings.ReplaceAll(strings.ToLower(label), " ", "_")
	}
	for _, obs := range r.Observations() {
		if obs.Label == resolved {
			return obs, true
		}
	}
	return Observation{}, false
}

// Describe narrates what the rover sees. With a topic it reports on that
// object only; otherwise it lists everything.
func (r *Recognizer) Describe(topic string) string {
	if topic != "" {
		resolved := ResolveLabel(r.profiles, topic)
		if resolved == "" {
			return fmt.Sprintf("I don't have a profile for a %s.", topic)
		}
		if obs, ok := r.Locate(resolved); ok {
			return fmt.Sprintf("I see %s.", obs.Description())
		}
		return fmt.Sprintf("I don't see a %s right now.", strings.ReplaceAll(resolved, "_", " "))
	}

	obs := r.Observations()
	switch len(obs) {
	case 0:
		return "I don't see anything important right now."
	case 1:
		return fmt.Sprintf("I see %s.", obs[0].Description())
	case 2:
		return fmt.Sprintf("I see %s and %s.", obs[0].Description(), obs[1].Description())
	default:
		parts := make([]string, len(obs)-1)
		for i := range parts {
			parts[i] = obs[i].Description()
		}
		return fmt.Sprintf("I see %s, and %s.", strings.Join(parts, ", "), obs[len(obs)-1].Description())
	}
}

// DescribeObservations is the plain collaborator form used by Query actions.
func (r *Recognizer) DescribeObservations() string {
	return r.Describe("")
}

// PlanGrab turns "grab the red cube" into a short directive plan: turn
// toward the object if needed, approach, stop, close the gripper. Every step
// still passes through the safety interlock when executed.
func (r *Recognizer) PlanGrab(label string) []directive.Record {
	obs, ok := r.Locate(label)
	if !ok {
		r.logger.Info("grab target not found", "label", label)
		return []directive.Record{{
			Type:  "speech",
			Value: fmt.Sprintf("I can't find a %s.", strings.ReplaceAll(label, "_", " ")),
		}}
	}

	var plan []directive.Record
	if obs.AngleDeg < -15 {
		plan = append(plan, directive.Record{Type: "movement", Value: "left"})
	} else if obs.AngleDeg > 15 {
		plan = append(plan, directive.Record{Type: "movement", Value: "right"})
	}
	if obs.DistanceCM > 15 {
		plan = append(plan, directive.Record{Type: "movement", Value: "forward"})
	}
	plan = append(plan,
		directive.Record{Type: "movement", Value: "stop"},
		directive.Record{Type: "gripper", Value: "close"},
	)
	return plan
}

// simulate invents a handful of observations from the profile table.
func (r *Recognizer) simulate() []Observation {
	r.mu.Lock()
	defer r.mu.Unlock()

	labels := make([]string, 0, len(r.profiles))
	for label := range r.profiles {
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return nil
	}

	n := r.rng.Intn(len(labels) + 1)
	r.rng.Shuffle(len(labels), func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	obs := make([]Observation, 0, n)
	for _, label := range labels[:n] {
		p := r.profiles[label]
		obs = append(obs, Observation{
			Label:      label,
			Color:      p.Color,
			Shape:      p.Shape,
			DistanceCM: 10 + r.rng.Float64()*50,
			AngleDeg:   -45 + r.rng.Float64()*90,
		})
	}
	return obs
}
