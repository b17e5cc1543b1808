package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "narrative.generic.title", "Atualização da liga")
	message.SetString(lang, "narrative.generic.body", "Algo aconteceu na sua liga.")
	message.SetString(lang, "narrative.generic.email_subject", "Atualização da liga Dramaturge")
	message.SetString(lang, "narrative.beat_published.title", "Novo momento da história")
	message.SetString(lang, "narrative.beat_published.body", "%s acabou de acontecer na sua liga.")
	message.SetString(lang, "narrative.beat_published.email_body", "Um novo momento da história chegou na sua liga: %s.")
	message.SetString(lang, "narrative.beat_published.email_subject", "Novo momento da história: %s")
	message.SetString(lang, "narrative.action_completed.title", "Ação do curador concluída")
	message.SetString(lang, "narrative.action_completed.body", "A ação %s terminou de executar.")
	message.SetString(lang, "narrative.stall_urgent.title", "A liga precisa de atenção")
	message.SetString(lang, "narrative.stall_urgent.body", "Uma estagnação do tipo %s já dura %d horas.")
}
