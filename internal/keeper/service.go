// Package keeper owns the saved gestures and sequences. Capture engines hand
// it finished records over the event bus; the UI and CLI read from it.
package keeper

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/gesture"
	"github.com/sadopc/gesturekeeper/internal/sequence"
	"github.com/sadopc/gesturekeeper/internal/store"
)

type Service struct {
	store     *store.Store
	bus       *events.Bus
	log       *slog.Logger
	gestures  *store.Collection[gesture.Record]
	sequences *store.Collection[sequence.Record]
	unsub     []func()
}

// New loads both collections and subscribes to the recorders' topics.
func New(s *store.Store, bus *events.Bus, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	svc := &Service{
		store:     s,
		bus:       bus,
		log:       log,
		gestures:  store.NewCollection[gesture.Record](s, store.KeyGestures, log),
		sequences: store.NewCollection[sequence.Record](s, store.KeySequences, log),
	}
	if err := svc.gestures.Load(); err != nil {
		return nil, fmt.Errorf("load gestures: %w", err)
	}
	if err := svc.sequences.Load(); err != nil {
		return nil, fmt.Errorf("load sequences: %w", err)
	}

	if bus != nil {
		svc.unsub = append(svc.unsub,
			events.On(bus, gesture.Topic, func(e gesture.Recorded) error {
				return svc.gestures.Append(e.Record)
			}),
			events.On(bus, sequence.Topic, func(e sequence.Recorded) error {
				return svc.sequences.Append(e.Record)
			}),
		)
	}

	log.Debug("keeper loaded", "gestures", svc.gestures.Len(), "sequences", svc.sequences.Len())
	return svc, nil
}

// Close detaches from the bus. The store stays open.
func (s *Service) Close() {
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
}

func (s *Service) Store() *store.Store { return s.store }

func (s *Service) Gestures() []gesture.Record { return s.gestures.All() }

func (s *Service) Sequences() []sequence.Record { return s.sequences.All() }

func (s *Service) Gesture(id string) (gesture.Record, bool) { return s.gestures.Get(id) }

func (s *Service) Sequence(id string) (sequence.Record, bool) { return s.sequences.Get(id) }

// AddGesture persists a record directly, bypassing the bus.
func (s *Service) AddGesture(r gesture.Record) error { return s.gestures.Append(r) }

func (s *Service) AddSequence(r sequence.Record) error { return s.sequences.Append(r) }

// DeleteGesture removes id. Unknown ids are not an error.
func (s *Service) DeleteGesture(id string) error {
	_, err := s.gestures.Remove(id)
	return err
}

func (s *Service) DeleteSequence(id string) error {
	_, err := s.sequences.Remove(id)
	return err
}

// FindSequence looks a sequence up by id, then by case-insensitive name. The
// first name match wins.
func (s *Service) FindSequence(idOrName string) (sequence.Record, bool) {
	if r, ok := s.sequences.Get(idOrName); ok {
		return r, true
	}
	for _, r := range s.sequences.All() {
		if strings.EqualFold(r.Name, idOrName) {
			return r, true
		}
	}
	return sequence.Record{}, false
}

// Features lists the gesture-protected features with the gesture saved for
// each, if any. A gesture protects a feature when its name is the feature's
// gesture name.
func (s *Service) Features() []FeatureStatus {
	all := gesture.Features()
	out := make([]FeatureStatus, len(all))
	gestures := s.gestures.All()
	for i, f := range all {
		out[i].Feature = f
		for _, g := range gestures {
			if g.Name == f.GestureName() {
				out[i].GestureID = g.ID
				break
			}
		}
	}
	return out
}

type FeatureStatus struct {
	gesture.Feature
	GestureID string
}

func (f FeatureStatus) Protected() bool { return f.GestureID != "" }
