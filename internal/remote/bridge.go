package remote

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ivlev/slidesync/internal/config"
	"github.com/ivlev/slidesync/internal/deck"
	"github.com/ivlev/slidesync/internal/playback"
	"github.com/ivlev/slidesync/internal/sched"
)

// Presenter is what the bridge drives and listens to.
type Presenter interface {
	Navigator
	CurrentSlide() *deck.Slide
	OnSlideChanged(fn func(deck.SlideContext))
}

// SlideState is published retained on the slide topic. Index is 1-based.
type SlideState struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// PlaybackState is published on the playback topic for every session change.
type PlaybackState struct {
	Player string `json:"player"`
	State  string `json:"state"`
}

// Bridge connects a presenter to an MQTT broker: commands arriving on the
// command topic drive the presenter, and slide and playback changes are
// published back.
//
// Publishing methods are called from the scheduler goroutine; paho runs the
// command handler on its own goroutines, so commands are posted onto the
// scheduler before they touch the presenter.
type Bridge struct {
	client pahomqtt.Client
	cfg    config.RemoteConfig
	topics Topics
	log    *slog.Logger

	mu        sync.Mutex
	onCommand pahomqtt.MessageHandler
}

var _ playback.Observer = (*Bridge)(nil)

// Connect dials the broker described by cfg. The status topic carries a
// retained online message while connected and the broker publishes offline
// through the last will if the process dies.
func Connect(cfg config.RemoteConfig, log *slog.Logger) (*Bridge, error) {
	b := newBridge(nil, cfg, log)

	opts := buildClientOptions(cfg)
	configureLWT(opts, b.topics, cfg.ClientID)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		b.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		b.log.Warn("broker connection lost", "error", err)
	})

	b.client = pahomqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	b.log.Info("connected to broker", "broker", brokerURL(cfg), "deck", cfg.DeckID)
	return b, nil
}

func newBridge(client pahomqtt.Client, cfg config.RemoteConfig, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		client: client,
		cfg:    cfg,
		topics: Topics{DeckID: cfg.DeckID},
		log:    log.With("component", "remote"),
	}
}

// Topics returns the topic names the bridge uses.
func (b *Bridge) Topics() Topics {
	return b.topics
}

// handleConnect runs on every (re)connect. The session is clean, so the
// command subscription has to be renewed.
func (b *Bridge) handleConnect() {
	b.client.Publish(b.topics.Status(), b.qos(), true, buildStatusPayload("online", b.cfg.ClientID, ""))

	b.mu.Lock()
	handler := b.onCommand
	b.mu.Unlock()
	if handler != nil {
		b.client.Subscribe(b.topics.Command(), b.qos(), handler)
	}
}

// Attach subscribes to the command topic and starts publishing p's slide
// changes. Call it before s starts running, or from its goroutine.
func (b *Bridge) Attach(p Presenter, s sched.Scheduler) error {
	handler := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		cmd, err := ParseCommand(msg.Payload())
		if err != nil {
			b.log.Warn("ignoring remote command", "error", err)
			return
		}
		s.Post(func() {
			if err := cmd.Apply(p); err != nil {
				b.log.Warn("remote command failed", "action", cmd.Action, "error", err)
			}
		})
	}

	b.mu.Lock()
	b.onCommand = handler
	b.mu.Unlock()

	token := b.client.Subscribe(b.topics.Command(), b.qos(), handler)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	p.OnSlideChanged(func(ev deck.SlideContext) {
		if err := b.PublishSlide(ev.Current); err != nil {
			b.log.Warn("slide not published", "slide", ev.Current.String(), "error", err)
		}
	})
	if err := b.PublishSlide(p.CurrentSlide()); err != nil {
		b.log.Warn("slide not published", "error", err)
	}
	return nil
}

// PublishSlide announces slide as the current one.
func (b *Bridge) PublishSlide(slide *deck.Slide) error {
	if slide == nil {
		return nil
	}
	return b.publish(b.topics.Slide(), true, SlideState{
		Index: slide.Index + 1,
		ID:    slide.ID,
		Title: slide.Title,
	})
}

// SessionStateChanged publishes a watch session transition.
func (b *Bridge) SessionStateChanged(playerID string, state playback.State) {
	err := b.publish(b.topics.Playback(), false, PlaybackState{Player: playerID, State: state.String()})
	if err != nil {
		b.log.Debug("playback state not published", "player", playerID, "error", err)
	}
}

// publish never waits for the broker; failures are logged when the token
// resolves.
func (b *Bridge) publish(topic string, retained bool, v any) error {
	if !b.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", topic, err)
	}

	token := b.client.Publish(topic, b.qos(), retained, payload)
	go func() {
		if token.WaitTimeout(defaultPublishTimeout) && token.Error() != nil {
			b.log.Warn("publish failed", "topic", topic, "error", token.Error())
		}
	}()
	return nil
}

// Close announces a graceful shutdown and disconnects.
func (b *Bridge) Close() error {
	if b.client == nil {
		return nil
	}
	if b.client.IsConnected() {
		token := b.client.Publish(b.topics.Status(), b.qos(), true, buildStatusPayload("offline", b.cfg.ClientID, "graceful_shutdown"))
		token.WaitTimeout(defaultPublishTimeout)
	}
	b.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

func (b *Bridge) qos() byte {
	return byte(b.cfg.QoS)
}
