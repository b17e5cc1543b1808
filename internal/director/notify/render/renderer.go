// Package render produces localized, channel-aware copy for narrative
// notification intents.
package render

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/message"

	"github.com/louisbranch/dramaturge/internal/director/notify"
)

const (
	defaultGenericTitle        = "League update"
	defaultGenericBody         = "Something happened in your league."
	defaultGenericEmailSubject = "Dramaturge league update"
)

// Channel identifies where one notification artifact is rendered.
type Channel string

const (
	// ChannelInApp renders copy for the league feed.
	ChannelInApp Channel = "in_app"
	// ChannelEmail renders copy for email delivery.
	ChannelEmail Channel = "email"
)

// Input is one channel render request for a stored notification intent.
type Input struct {
	Topic       string
	PayloadJSON string
	Channel     Channel
}

// Output is localized, channel-aware copy derived from one intent.
type Output struct {
	Title        string
	BodyText     string
	EmailSubject string
}

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

type beatPayload struct {
	Title    string `json:"title"`
	BeatType string `json:"beat_type"`
}

type actionPayload struct {
	ActionType string `json:"action_type"`
	Message    string `json:"message"`
}

type stallPayload struct {
	StallType     string `json:"stall_type"`
	Severity      string `json:"severity"`
	DurationHours int    `json:"duration_hours"`
}

// Render returns localized copy for one notification intent.
func Render(loc Localizer, input Input) Output {
	switch normalizeToken(input.Topic) {
	case notify.TopicBeatPublished:
		return renderBeatPublished(loc, input)
	case notify.TopicActionCompleted:
		return renderActionCompleted(loc, input)
	case notify.TopicStallUrgent:
		return renderStallUrgent(loc, input)
	default:
		return genericOutput(loc)
	}
}

func renderBeatPublished(loc Localizer, input Input) Output {
	payload := beatPayload{}
	if !decodePayload(input.PayloadJSON, &payload) {
		return genericOutput(loc)
	}

	title := localize(loc, "narrative.beat_published.title")
	bodyKey := "narrative.beat_published.body"
	if input.Channel == ChannelEmail {
		bodyKey = "narrative.beat_published.email_body"
	}
	return Output{
		Title:        title,
		BodyText:     localize(loc, bodyKey, payload.Title),
		EmailSubject: localize(loc, "narrative.beat_published.email_subject", payload.Title),
	}
}

func renderActionCompleted(loc Localizer, input Input) Output {
	payload := actionPayload{}
	if !decodePayload(input.PayloadJSON, &payload) {
		return genericOutput(loc)
	}

	title := localize(loc, "narrative.action_completed.title")
	return Output{
		Title:        title,
		BodyText:     localize(loc, "narrative.action_completed.body", payload.ActionType),
		EmailSubject: title,
	}
}

func renderStallUrgent(loc Localizer, input Input) Output {
	payload := stallPayload{}
	if !decodePayload(input.PayloadJSON, &payload) {
		return genericOutput(loc)
	}

	title := localize(loc, "narrative.stall_urgent.title")
	return Output{
		Title:        title,
		BodyText:     localize(loc, "narrative.stall_urgent.body", payload.StallType, payload.DurationHours),
		EmailSubject: title,
	}
}

func genericOutput(loc Localizer) Output {
	title := localizeWithFallback(loc, "narrative.generic.title", defaultGenericTitle)
	body := localizeWithFallback(loc, "narrative.generic.body", defaultGenericBody)
	subject := localizeWithFallback(loc, "narrative.generic.email_subject", defaultGenericEmailSubject)
	return Output{
		Title:        title,
		BodyText:     body,
		EmailSubject: subject,
	}
}

func decodePayload(raw string, dest any) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}

func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
