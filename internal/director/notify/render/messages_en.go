package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "narrative.generic.title", defaultGenericTitle)
	message.SetString(lang, "narrative.generic.body", defaultGenericBody)
	message.SetString(lang, "narrative.generic.email_subject", defaultGenericEmailSubject)
	message.SetString(lang, "narrative.beat_published.title", "New story beat")
	message.SetString(lang, "narrative.beat_published.body", "%s just happened in your league.")
	message.SetString(lang, "narrative.beat_published.email_body", "A new story beat landed in your league: %s.")
	message.SetString(lang, "narrative.beat_published.email_subject", "New story beat: %s")
	message.SetString(lang, "narrative.action_completed.title", "Curator action completed")
	message.SetString(lang, "narrative.action_completed.body", "The %s action finished running.")
	message.SetString(lang, "narrative.stall_urgent.title", "League needs attention")
	message.SetString(lang, "narrative.stall_urgent.body", "A %s stall has been running for %d hours.")
}
