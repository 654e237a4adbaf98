package remote

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/slidesync/internal/config"
)

// PairingURL is what a phone remote needs to find the deck: the broker and
// the command topic.
func PairingURL(cfg config.RemoteConfig) string {
	scheme := "mqtt"
	if cfg.TLS {
		scheme = "mqtts"
	}
	return fmt.Sprintf("%s://%s:%d/%s", scheme, cfg.Host, cfg.Port, Topics{DeckID: cfg.DeckID}.Command())
}

// PairingQR renders PairingURL as a QR code made of terminal block characters.
func PairingQR(cfg config.RemoteConfig) (string, error) {
	q, err := qrcode.New(PairingURL(cfg), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encoding pairing code: %w", err)
	}
	return q.ToSmallString(false), nil
}
