package exchange

import "errors"

// ErrMissingEntity is returned when an entity a handler relies on is absent
// from the store. Processing cannot continue past such an event.
var ErrMissingEntity = errors.New("missing entity")

// ErrEventAborted is returned when an event is dropped as a whole, none of
// its writes being committed. Processing continues with the next event.
var ErrEventAborted = errors.New("event aborted")
