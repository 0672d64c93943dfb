package anim

import (
	"reflect"
)

// EventKind classifies animation lifecycle events.
type EventKind int

const (
	EventStarted EventKind = iota
	EventCompleted
	EventSkipped
)

// Event is published by Update when an animation starts or ends.
type Event struct {
	Kind EventKind
	ID   AnimationID
}

// objectKey addresses one property of one registered object.
type objectKey struct {
	Object   ObjectID
	Property string
}

type registeredObject struct {
	object Animatable
	typ    reflect.Type
}

// System owns all live animations. Two modes coexist: value-cache
// animations keyed by string, polled by consumers; and object animations
// that write into registered Animatable handles on every update.
//
// Starting an animation on a key that already has one cancels the old
// animation outright; the new From value applies immediately.
type System struct {
	valueAnims map[string]*Animation
	valueOrder []string
	values     map[string]float64

	objects  map[ObjectID]registeredObject
	objAnims map[objectKey]*Animation
	objOrder []objectKey

	nextAnimID   AnimationID
	nextObjectID ObjectID
	events       []Event
}

// NewSystem creates an empty animation system.
func NewSystem() *System {
	return &System{
		valueAnims: make(map[string]*Animation),
		values:     make(map[string]float64),
		objects:    make(map[ObjectID]registeredObject),
		objAnims:   make(map[objectKey]*Animation),
		nextAnimID: 1,
	}
}

func (s *System) allocID() AnimationID {
	id := s.nextAnimID
	s.nextAnimID++
	return id
}

// Animate starts a value-cache animation on key, cancelling any live
// animation on the same key.
func (s *System) Animate(key string, from, to, duration float64, easing Easing) AnimationID {
	s.cancelValue(key)

	a := newAnimation(s.allocID(), from, to, duration, easing)
	s.values[key] = from
	s.valueAnims[key] = a
	s.valueOrder = append(s.valueOrder, key)
	s.events = append(s.events, Event{Kind: EventStarted, ID: a.ID})
	return a.ID
}

// FadeIn animates key from 0 to 1.
func (s *System) FadeIn(key string, duration float64, easing Easing) AnimationID {
	return s.Animate(key, 0, 1, duration, easing)
}

// FadeOut animates key from 1 to 0.
func (s *System) FadeOut(key string, duration float64, easing Easing) AnimationID {
	return s.Animate(key, 1, 0, duration, easing)
}

// Value returns the cached current value for key.
func (s *System) Value(key string) (float64, bool) {
	v, ok := s.values[key]
	return v, ok
}

// ValueOr returns the cached value for key or fallback.
func (s *System) ValueOr(key string, fallback float64) float64 {
	if v, ok := s.values[key]; ok {
		return v
	}
	return fallback
}

// ClearValue drops a cached value and cancels its animation.
func (s *System) ClearValue(key string) {
	s.cancelValue(key)
	delete(s.values, key)
}

func (s *System) cancelValue(key string) {
	if _, ok := s.valueAnims[key]; !ok {
		return
	}
	delete(s.valueAnims, key)
	s.removeValueOrder(key)
}

func (s *System) removeValueOrder(key string) {
	for i, k := range s.valueOrder {
		if k == key {
			s.valueOrder = append(s.valueOrder[:i], s.valueOrder[i+1:]...)
			return
		}
	}
}

// Register hands an object to the system and returns its id. The system is
// the sole writer of the object's properties from then on.
func (s *System) Register(obj Animatable) ObjectID {
	s.nextObjectID++
	id := s.nextObjectID
	s.objects[id] = registeredObject{object: obj, typ: reflect.TypeOf(obj)}
	return id
}

// Unregister releases an object and drops its animations without firing
// completion events.
func (s *System) Unregister(id ObjectID) {
	delete(s.objects, id)
	kept := s.objOrder[:0]
	for _, key := range s.objOrder {
		if key.Object == id {
			delete(s.objAnims, key)
			continue
		}
		kept = append(kept, key)
	}
	s.objOrder = kept
}

// Object returns the registered handle for id.
func (s *System) Object(id ObjectID) (Animatable, bool) {
	r, ok := s.objects[id]
	return r.object, ok
}

// AnimateObject starts an animation that drives one property of a
// registered object. The property must be exposed by the object.
func (s *System) AnimateObject(id ObjectID, property string, from, to, duration float64, easing Easing) (AnimationID, error) {
	reg, ok := s.objects[id]
	if !ok {
		return 0, &ObjectError{Object: id, Message: "not registered"}
	}
	if _, ok := reg.object.GetProperty(property); !ok {
		return 0, &ObjectError{Object: id, Property: property, Message: "no such property"}
	}

	key := objectKey{Object: id, Property: property}
	if _, live := s.objAnims[key]; live {
		delete(s.objAnims, key)
		s.removeObjOrder(key)
	}

	a := newAnimation(s.allocID(), from, to, duration, easing)
	reg.object.SetProperty(property, from)
	s.objAnims[key] = a
	s.objOrder = append(s.objOrder, key)
	s.events = append(s.events, Event{Kind: EventStarted, ID: a.ID})
	return a.ID, nil
}

// AnimateObjectAs is AnimateObject with a static type check: the registered
// object must be of type T, otherwise the request is rejected.
func AnimateObjectAs[T Animatable](s *System, id ObjectID, property string, from, to, duration float64, easing Easing) (AnimationID, error) {
	reg, ok := s.objects[id]
	if !ok {
		return 0, &ObjectError{Object: id, Message: "not registered"}
	}
	var want T
	if reg.typ != reflect.TypeOf(want) {
		return 0, &ObjectError{Object: id, Message: "registered object has type " + reg.typ.String()}
	}
	return s.AnimateObject(id, property, from, to, duration, easing)
}

func (s *System) removeObjOrder(key objectKey) {
	for i, k := range s.objOrder {
		if k == key {
			s.objOrder = append(s.objOrder[:i], s.objOrder[i+1:]...)
			return
		}
	}
}

// Update advances all animations by dt, applies values, drains finished
// animations, and returns the events of this step in start order.
func (s *System) Update(dt float64) []Event {
	for _, key := range append([]string(nil), s.valueOrder...) {
		a := s.valueAnims[key]
		if a == nil {
			continue
		}
		if a.State.IsActive() {
			a.Update(dt)
			s.values[key] = a.Current()
		}
		if a.State.IsFinished() {
			s.values[key] = a.Current()
			s.events = append(s.events, finishEvent(a))
			delete(s.valueAnims, key)
			s.removeValueOrder(key)
		}
	}

	for _, key := range append([]objectKey(nil), s.objOrder...) {
		a := s.objAnims[key]
		if a == nil {
			continue
		}
		if a.State.IsActive() {
			a.Update(dt)
			if reg, ok := s.objects[key.Object]; ok {
				reg.object.SetProperty(key.Property, a.Current())
			}
		}
		if a.State.IsFinished() {
			if reg, ok := s.objects[key.Object]; ok {
				reg.object.SetProperty(key.Property, a.Current())
			}
			s.events = append(s.events, finishEvent(a))
			delete(s.objAnims, key)
			s.removeObjOrder(key)
		}
	}

	events := s.events
	s.events = nil
	return events
}

func finishEvent(a *Animation) Event {
	if a.State == Skipped {
		return Event{Kind: EventSkipped, ID: a.ID}
	}
	return Event{Kind: EventCompleted, ID: a.ID}
}

// Skip skips the animation with the given id, honoring skippability.
func (s *System) Skip(id AnimationID) {
	if a := s.find(id); a != nil {
		a.Skip()
	}
}

// ForceComplete completes the animation with the given id even when it is
// not skippable.
func (s *System) ForceComplete(id AnimationID) {
	if a := s.find(id); a != nil {
		a.ForceComplete()
	}
}

func (s *System) find(id AnimationID) *Animation {
	for _, a := range s.valueAnims {
		if a.ID == id {
			return a
		}
	}
	for _, a := range s.objAnims {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// SkipAll skips every skippable animation in both modes and applies final
// values immediately. Finished animations drain on the next Update.
func (s *System) SkipAll() {
	for key, a := range s.valueAnims {
		a.Skip()
		if a.State.IsFinished() {
			s.values[key] = a.Current()
		}
	}
	for key, a := range s.objAnims {
		a.Skip()
		if a.State.IsFinished() {
			if reg, ok := s.objects[key.Object]; ok {
				reg.object.SetProperty(key.Property, a.Current())
			}
		}
	}
}

// HasActive reports whether any animation still wants updates.
func (s *System) HasActive() bool {
	for _, a := range s.valueAnims {
		if a.State.IsActive() {
			return true
		}
	}
	for _, a := range s.objAnims {
		if a.State.IsActive() {
			return true
		}
	}
	return false
}

// ActiveCount returns how many animations are live, for debug overlays.
func (s *System) ActiveCount() int {
	return len(s.valueAnims) + len(s.objAnims)
}
