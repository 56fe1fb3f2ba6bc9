// Package ctalert sends an SMS page when a monitor detects a
// split-view: two signed tree heads of the same size with different
// roots, which is the one failure mode a Merkle log cannot recover
// from automatically. This is deliberately thin wiring — one call,
// one API — since paging is the entire job.
package ctalert

import (
	"fmt"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/kindlyrobotics/ctlog/merkle"
)

// Alerter sends SMS pages via Twilio.
type Alerter struct {
	client  *twilio.RestClient
	from    string
	to      string
}

// New builds an Alerter from TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN,
// TWILIO_FROM_NUMBER, and TWILIO_ALERT_NUMBER.
func New() *Alerter {
	return &Alerter{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: os.Getenv("TWILIO_ACCOUNT_SID"),
			Password: os.Getenv("TWILIO_AUTH_TOKEN"),
		}),
		from: os.Getenv("TWILIO_FROM_NUMBER"),
		to:   os.Getenv("TWILIO_ALERT_NUMBER"),
	}
}

// SplitView pages the on-call number with the two conflicting roots
// observed at the same tree size.
func (a *Alerter) SplitView(size uint64, rootA, rootB merkle.Hash) error {
	body := fmt.Sprintf("ctlog split-view at size %d: %s vs %s", size, rootA, rootB)
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(a.to)
	params.SetFrom(a.from)
	params.SetBody(body)

	if _, err := a.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("ctalert: send sms: %w", err)
	}
	return nil
}
