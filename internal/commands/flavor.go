package commands

import (
	"context"
	"fmt"
)

type percentFlavor struct {
	name   string
	prefix string
	format string
}

var percentFlavors = []percentFlavor{
	{"beauty", "جمال", "✨ نسبة الجمال عندك: %d%%"},
	{"romance", "رومانسية", "💖 نسبة الرومانسية عندك: %d%%"},
	{"success", "توفيق", "🌟 نسبة التوفيق اليوم: %d%%"},
	{"mood", "مزاج", "😌 مزاجك هلق: %d%%"},
	{"energy", "طاقة", "⚡ طاقتك اليوم: %d%%"},
	{"envy", "حسد", "👁️ نسبة الحسد عندك: %d%%"},
	{"stupidity", "غباء", "🤪 نسبة الغباء عندك: %d%%"},
	{"strength", "قوة", "💪 نسبة القوة عندك: %d%%"},
	{"evil", "شر", "😈 نسبة الشر عندك: %d%%"},
	{"intelligence", "ذكاء", "🧠 نسبة الذكاء عندك: %d%%"},
}

// percent draws a uniform integer in [0,100].
func (e *Engine) percent() int {
	return e.rand(101)
}

func runPercent(format string) func(context.Context, *Engine, call) {
	return func(_ context.Context, e *Engine, c call) {
		e.reply(c, fmt.Sprintf(format, e.percent()))
	}
}

func luckPhrase(luck int) string {
	switch {
	case luck <= 0:
		return "🔮 حظّك هلق 0%… لا تطلع من البيت 😂"
	case luck < 20:
		return fmt.Sprintf("🔮 حظّك هلق %d%%… دير بالك ع حالك اليوم.", luck)
	case luck < 50:
		return fmt.Sprintf("🔮 حظّك هلق %d%%… ماشي الحال، نص نص.", luck)
	case luck < 80:
		return fmt.Sprintf("🔮 حظّك هلق %d%%… وضعك طيب، كمّل هيك.", luck)
	case luck < 100:
		return fmt.Sprintf("🔮 حظّك هلق %d%%… اليوم يومك يا زلمة!", luck)
	default:
		return "🔮 حظّك 100%… افتح مشروع فوراً 😂🔥"
	}
}

func runLuck(_ context.Context, e *Engine, c call) {
	e.reply(c, luckPhrase(e.percent()))
}

func loveComment(percent int) string {
	switch {
	case percent < 20:
		return "😅 مو لابقين لبعض بنوب."
	case percent < 50:
		return "🙂 في شوية أمل… بس بدها شغل."
	case percent < 80:
		return "😉 في كيمياء واضحة بيناتكن."
	default:
		return "🔥 والله شكلكم مكتوبين لبعض!"
	}
}

// runLove pairs the sender with a random member of the room's ledger,
// leaving out the bot and the sender.
func runLove(_ context.Context, e *Engine, c call) {
	var candidates []string
	for _, m := range e.ledger.Members(c.Room) {
		if m != e.cfg.Nick && m != c.Nick {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		e.reply(c, msgLoveNobody)
		return
	}
	chosen := candidates[e.rand(len(candidates))]
	p := e.percent()
	e.reply(c, fmt.Sprintf(msgLove, c.Nick, chosen, p, loveComment(p)))
}
