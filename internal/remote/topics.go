package remote

import "fmt"

// topicPrefix is the root of every slidesync topic.
const topicPrefix = "slidesync"

// Topics builds the topic names of one deck.
//
//	slidesync/{deck}/command   remote → presenter
//	slidesync/{deck}/slide     current slide, retained
//	slidesync/{deck}/playback  watch session state changes
//	slidesync/{deck}/status    online/offline, retained, also the LWT
type Topics struct {
	DeckID string
}

func (t Topics) Command() string  { return t.topic("command") }
func (t Topics) Slide() string    { return t.topic("slide") }
func (t Topics) Playback() string { return t.topic("playback") }
func (t Topics) Status() string   { return t.topic("status") }

func (t Topics) topic(leaf string) string {
	return fmt.Sprintf("%s/%s/%s", topicPrefix, t.DeckID, leaf)
}
