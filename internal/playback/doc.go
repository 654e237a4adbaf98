// Package playback keeps embedded animation players consistent with the slide
// being shown.
//
// A Bootstrap waits for the host to become ready, pauses every player, starts
// the current slide's player if it asks to auto-start, and registers the
// Controller for navigation events. On each slide change the Controller pauses
// the outgoing player and starts the incoming one. When the incoming player has
// native looping switched off it is handed to a Session, which samples
// playback and, because the engine has no "finished" signal, detects the end
// itself and parks the player on its final frame.
//
// All of it runs on a single sched.Scheduler; nothing here takes a lock.
package playback
