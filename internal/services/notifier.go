package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// TokenSource yields the push tokens a bin alert should reach.
type TokenSource interface {
	StaffTokens() ([]string, error)
}

// DashboardFeed mirrors alerts onto the live websocket feed.
type DashboardFeed interface {
	NotificationFired(n models.Notification)
}

// PushNotifier implements alert.Deliverer: it fans one notification out to
// every registered staff device and the dashboard feed. Delivery failure is
// reported back to the dispatcher, which only ever updates delivery status.
type PushNotifier struct {
	fcm    *FCMService
	tokens TokenSource
	feed   DashboardFeed
}

// NewPushNotifier wires a notifier. fcm and feed may be nil (e.g. push
// disabled in local development); the notifier degrades to whichever
// channels exist.
func NewPushNotifier(fcm *FCMService, tokens TokenSource, feed DashboardFeed) *PushNotifier {
	return &PushNotifier{fcm: fcm, tokens: tokens, feed: feed}
}

func (p *PushNotifier) Deliver(n models.Notification) error {
	if p.feed != nil {
		p.feed.NotificationFired(n)
	}
	if p.fcm == nil {
		if p.feed == nil {
			return fmt.Errorf("no delivery channel configured")
		}
		return nil
	}

	tokens, err := p.tokens.StaffTokens()
	if err != nil {
		return fmt.Errorf("resolve staff tokens: %w", err)
	}
	if len(tokens) == 0 {
		// Nobody registered a device; the dashboard feed already has it.
		return nil
	}

	title := fmt.Sprintf("%s: bin #%d", titleFor(n.Severity), n.BinNumber)
	return p.fcm.SendMulticast(tokens, title, n.Message, map[string]string{
		"type":        "bin_alert",
		"bin_id":      n.BinID,
		"bin_number":  strconv.Itoa(n.BinNumber),
		"severity":    string(n.Severity),
		"reason":      string(n.Reason),
		"bin_version": strconv.FormatInt(n.BinVersion, 10),
	})
}

func titleFor(sev models.Severity) string {
	return strings.ToUpper(string(sev)[:1]) + string(sev)[1:]
}
