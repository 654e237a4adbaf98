// Package player describes the surface an embedded animation engine exposes to
// the playback controller. The controller references players but never owns
// them; the engine creates the runtime handle asynchronously.
package player

// Attribute names read and written on a player element.
const (
	AttrLoop = "loop"
	AttrAuto = "auto"
)

// Handle is the engine's runtime object for one animation instance.
type Handle interface {
	// Frame is the current playback position.
	Frame() int
	// EndFrame is the last frame of the animation.
	EndFrame() int
	// FPS is the native frame rate, or <= 0 when the engine does not report one.
	FPS() int
	Active() bool
	Paused() bool

	Activate()
	Deactivate()
	// RequestSeek moves playback to frame. On an inactive handle the seek
	// takes effect before RequestSeek returns.
	RequestSeek(frame int)
	TogglePlayback()
	// OnFrameChanged registers fn for frame-change notifications and returns a
	// function that removes it.
	OnFrameChanged(fn func(frame int)) (unsubscribe func())
}

// Element is the player as embedded in a slide.
type Element interface {
	ID() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	// Handle returns nil until the engine has initialised the player.
	Handle() Handle
}

// LoopDisabled reports whether native looping is switched off. Only the
// literal "false" disables it; anything else, including absence, loops.
func LoopDisabled(el Element) bool {
	v, ok := el.Attr(AttrLoop)
	return ok && v == "false"
}

// AutoRequested reports whether the element asks to start on its own.
func AutoRequested(el Element) bool {
	v, ok := el.Attr(AttrAuto)
	return ok && v == "true"
}

// Playing reports whether el has an initialised handle that is not paused.
func Playing(el Element) bool {
	h := el.Handle()
	return h != nil && !h.Paused()
}
