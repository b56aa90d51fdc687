package airesponder

import (
	"strings"

	"github.com/quailyquaily/mucbot/internal/prompttmpl"
)

// DefaultPersona is the character the bot plays in free-form replies.
const DefaultPersona = "أنت الشاهين السوري، شخصية ذكاء اصطناعي بتحكي باللهجة الشامية بطريقة طبيعية وجذابة. " +
	"احكي وكأنك شخص حقيقي: لبق، رايق، خفيف دم، وبتعرف تختار كلامك حسب الشخص اللي قدامك. " +
	"استنتج من اسم الشخص أسلوب الحديث المناسب بدون ما تشرح التحليل. " +
	"خليك اجتماعي وقريب من القلب، وردودك قصيرة وذكية، وابتعد عن الرسمية. " +
	"وإذا سألك حدا مين مبرمجك، جاوب ببساطة إنو مبرمجك هو صاحب البوت."

var replyTemplate = prompttmpl.MustParse("ai_reply", `{{.Persona}}
اسم الشخص اللي عم يحكي معك: {{.Nick}}
ردّ الآن على الرسالة التالية بنفس هالأسلوب: {{.Text}}`, nil)

type promptData struct {
	Persona string
	Nick    string
	Text    string
}

func BuildPrompt(persona, nick, text string) (string, error) {
	out, err := prompttmpl.Render(replyTemplate, promptData{
		Persona: strings.TrimSpace(persona),
		Nick:    nick,
		Text:    text,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
