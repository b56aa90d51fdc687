package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/quailyquaily/mucbot/internal/airesponder"
	"github.com/quailyquaily/mucbot/internal/ledger"
	"github.com/quailyquaily/mucbot/internal/xmpp"
)

// rule is one entry of the command grammar. Rules are tried in order and the
// first match runs. Matching is plain prefix or substring on the addressed
// text, so "توب" anywhere in a message opens the leaderboard.
type rule struct {
	name  string
	match func(text string, admin bool) bool
	run   func(ctx context.Context, e *Engine, c call)
}

func prefix(p string) func(string, bool) bool {
	return func(text string, _ bool) bool { return strings.HasPrefix(text, p) }
}

func anyPrefix(ps ...string) func(string, bool) bool {
	return func(text string, _ bool) bool {
		for _, p := range ps {
			if strings.HasPrefix(text, p) {
				return true
			}
		}
		return false
	}
}

func contains(s string) func(string, bool) bool {
	return func(text string, _ bool) bool { return strings.Contains(text, s) }
}

// adminOnly gates a matcher on admin authority. A non-admin falls through to
// the later rules.
func adminOnly(m func(string, bool) bool) func(string, bool) bool {
	return func(text string, admin bool) bool { return admin && m(text, admin) }
}

func defaultRules() []rule {
	rules := []rule{
		{name: "greeting", match: func(text string, _ bool) bool { return text == "" }, run: runGreeting},
		{name: "grant_admin", match: anyPrefix("إعطاء ادمن", "اعطاء ادمن", "خلي"), run: runGrantAdmin},
		{name: "revoke_admin", match: anyPrefix("سحب ادمن", "سحب الادمن"), run: runRevokeAdmin},
		{name: "luck", match: prefix("حظ"), run: runLuck},
		{name: "love", match: prefix("حب"), run: runLove},
	}
	for _, f := range percentFlavors {
		rules = append(rules, rule{name: f.name, match: prefix(f.prefix), run: runPercent(f.format)})
	}
	return append(rules,
		rule{name: "points_mine", match: contains("نقاطي"), run: runPointsMine},
		rule{name: "points_of", match: prefix("نقاط "), run: runPointsOf},
		rule{name: "leaderboard", match: contains("توب"), run: runLeaderboard},
		rule{name: "zero_all", match: adminOnly(contains("صفّر الكل")), run: runZeroAll},
		rule{name: "zero", match: adminOnly(prefix("صفّر ")), run: runZero},
		rule{name: "gift", match: prefix("أهدي "), run: runGift},
		rule{name: "join_room", match: prefix("فوت "), run: runJoin("فوت", msgJoined)},
		rule{name: "leave_room", match: adminOnly(prefix("اخرج ")), run: runLeave("اخرج", msgLeft)},
		rule{name: "leave_room_alt", match: adminOnly(prefix("اطلع ")), run: runLeave("اطلع", msgLeftAlt)},
		rule{name: "join_room_admin", match: adminOnly(prefix("ادخل ")), run: runJoin("ادخل", msgJoinedAdmin)},
		rule{name: "list_rooms", match: contains("روماتك"), run: runListRooms},
		rule{name: "prayer_times", match: contains("صلاة"), run: runPrayer},
		rule{name: "weather", match: contains("طقس"), run: runWeather},
		rule{name: "news", match: contains("أخبار"), run: runNews},
		rule{name: "horoscope", match: contains("برج"), run: runHoroscope},
		rule{name: "would_you_rather", match: contains("خيروك"), run: runWouldYouRather},
		rule{name: "trivia", match: contains("عاصمة"), run: runTrivia},
		rule{name: "help", match: contains("اوامر"), run: runHelp},
		rule{name: "ai", match: func(string, bool) bool { return true }, run: runAI},
	)
}

func runGreeting(_ context.Context, e *Engine, c call) {
	e.reply(c, fmt.Sprintf(msgGreeting, c.Nick))
}

// adminTarget extracts the name after the "ادمن" token, skipping an optional
// particle such as "لـ" or "من".
func adminTarget(text string, particle string, markers ...string) (string, bool) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return "", false
	}
	idx := -1
	for i, p := range parts {
		for _, m := range markers {
			if p == m {
				idx = i + 1
				break
			}
		}
		if idx >= 0 {
			break
		}
	}
	if idx < 0 || idx >= len(parts) {
		return "", false
	}
	if parts[idx] == particle {
		idx++
	}
	name := strings.TrimSpace(strings.Join(parts[idx:], " "))
	return name, name != ""
}

func runGrantAdmin(ctx context.Context, e *Engine, c call) {
	if c.Nick != e.cfg.PrimaryAdmin {
		e.reply(c, msgPrimaryOnly)
		return
	}
	name, ok := adminTarget(c.Text, "لـ", "ادمن")
	if !ok {
		e.reply(c, msgGrantUsage)
		return
	}
	if !e.ledger.GrantAdmin(ctx, name) {
		e.reply(c, fmt.Sprintf(msgAlreadyAdmin, name))
		return
	}
	e.logger.Info("admin_granted", "nick", name, "by", c.Nick)
	e.reply(c, fmt.Sprintf(msgGranted, name))
}

func runRevokeAdmin(ctx context.Context, e *Engine, c call) {
	if c.Nick != e.cfg.PrimaryAdmin {
		e.reply(c, msgPrimaryOnly)
		return
	}
	name, ok := adminTarget(c.Text, "من", "ادمن", "الادمن")
	if !ok {
		e.reply(c, msgRevokeUsage)
		return
	}
	if !e.ledger.RevokeAdmin(ctx, name) {
		e.reply(c, fmt.Sprintf(msgNotAdmin, name))
		return
	}
	e.logger.Info("admin_revoked", "nick", name, "by", c.Nick)
	e.reply(c, fmt.Sprintf(msgRevoked, name))
}

func runPointsMine(_ context.Context, e *Engine, c call) {
	if c.admin {
		e.reply(c, fmt.Sprintf(msgPointsUnlimited, c.Nick))
		return
	}
	pts, ok := e.ledger.Points(c.Room, c.Nick)
	if !ok {
		e.reply(c, msgNoPoints)
		return
	}
	e.reply(c, fmt.Sprintf(msgPointsMine, pts))
}

func runPointsOf(_ context.Context, e *Engine, c call) {
	name := strings.TrimSpace(strings.TrimPrefix(c.Text, "نقاط"))
	pts, ok := e.ledger.Points(c.Room, name)
	if !ok {
		e.reply(c, fmt.Sprintf(msgMemberNotFound, name))
		return
	}
	e.reply(c, fmt.Sprintf(msgPointsOf, name, pts))
}

func runLeaderboard(_ context.Context, e *Engine, c call) {
	top, err := e.ledger.Top(c.Room, 5)
	if err != nil {
		e.reply(c, msgNoRoomData)
		return
	}
	lines := []string{msgTopHeader}
	for i, s := range top {
		lines = append(lines, fmt.Sprintf(msgTopLine, i+1, s.Nick, s.Points))
	}
	e.reply(c, strings.Join(lines, "\n"))
}

func runZeroAll(ctx context.Context, e *Engine, c call) {
	n, err := e.ledger.ZeroAll(ctx, c.Room)
	if err != nil {
		e.logger.Debug("zero_all_skipped", "room", c.Room, "error", err.Error())
		return
	}
	e.logger.Info("points_zeroed_all", "room", c.Room, "members", n, "by", c.Nick)
	e.reply(c, msgZeroedAll)
}

func runZero(ctx context.Context, e *Engine, c call) {
	name := strings.TrimSpace(strings.TrimPrefix(c.Text, "صفّر"))
	if err := e.ledger.Zero(ctx, c.Room, name); err != nil {
		e.reply(c, fmt.Sprintf(msgMemberNotFound, name))
		return
	}
	e.reply(c, fmt.Sprintf(msgZeroed, name))
}

// parseGift reads "أهدي <amount> لـ <name>".
func parseGift(text string) (int, string, bool) {
	parts := strings.Fields(text)
	if len(parts) < 4 {
		return 0, "", false
	}
	amount, err := strconv.Atoi(parts[1])
	if err != nil || amount <= 0 {
		return 0, "", false
	}
	idx := -1
	for i, p := range parts {
		if p == "لـ" {
			idx = i + 1
			break
		}
	}
	if idx < 0 || idx >= len(parts) {
		return 0, "", false
	}
	return amount, strings.Join(parts[idx:], " "), true
}

func runGift(ctx context.Context, e *Engine, c call) {
	amount, to, ok := parseGift(c.Text)
	if !ok {
		e.reply(c, msgGiftUsage)
		return
	}
	if c.admin {
		if _, err := e.ledger.Award(ctx, c.Room, to, amount); err != nil {
			e.reply(c, msgGiftUsage)
			return
		}
		e.reply(c, fmt.Sprintf(msgGiftByAdmin, c.Nick, amount, to))
		return
	}
	switch err := e.ledger.Transfer(ctx, c.Room, c.Nick, to, amount); {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		e.reply(c, fmt.Sprintf(msgGiftShort, c.Nick))
	case err != nil:
		e.reply(c, msgGiftUsage)
	default:
		e.reply(c, fmt.Sprintf(msgGiftSent, c.Nick, amount, to))
	}
}

func runJoin(verb, format string) func(context.Context, *Engine, call) {
	return func(_ context.Context, e *Engine, c call) {
		name := strings.TrimSpace(strings.TrimPrefix(c.Text, verb))
		room := xmpp.ResolveRoom(name, e.cfg.ConferenceDomain)
		if room == "" || e.rooms == nil {
			return
		}
		if e.rooms.Join(room, e.cfg.Nick) {
			e.logger.Info("room_joined", "room", room, "by", c.Nick)
		}
		e.reply(c, fmt.Sprintf(format, name))
	}
}

func runLeave(verb, format string) func(context.Context, *Engine, call) {
	return func(_ context.Context, e *Engine, c call) {
		name := strings.TrimSpace(strings.TrimPrefix(c.Text, verb))
		room := xmpp.ResolveRoom(name, e.cfg.ConferenceDomain)
		if room == "" || e.rooms == nil {
			return
		}
		if e.rooms.Leave(room, e.cfg.Nick) {
			e.logger.Info("room_left", "room", room, "by", c.Nick)
		}
		e.reply(c, fmt.Sprintf(format, name))
	}
}

func runListRooms(_ context.Context, e *Engine, c call) {
	var rooms []string
	if e.rooms != nil {
		rooms = e.rooms.List()
	}
	if len(rooms) == 0 {
		e.reply(c, msgNoRooms)
		return
	}
	lines := []string{msgRoomsHeader}
	for _, r := range rooms {
		lines = append(lines, "• "+r)
	}
	e.reply(c, strings.Join(lines, "\n"))
}

func runPrayer(ctx context.Context, e *Engine, c call) {
	if e.info == nil {
		return
	}
	t, err := e.info.FetchPrayerTimes(ctx, e.cfg.PrayerCity)
	if err != nil {
		e.swallow(c, "prayer_times", err)
		return
	}
	e.reply(c, fmt.Sprintf(msgPrayer, e.cfg.PrayerCityLabel, t.Fajr, t.Dhuhr, t.Asr, t.Maghrib, t.Isha))
}

func runWeather(ctx context.Context, e *Engine, c call) {
	if e.info == nil {
		return
	}
	city := strings.TrimSpace(strings.Replace(c.Text, "طقس", "", 1))
	if city == "" {
		city = e.cfg.DefaultWeatherCity
	}
	text, err := e.info.FetchWeather(ctx, city)
	if err != nil {
		e.swallow(c, "weather", err)
		return
	}
	e.reply(c, fmt.Sprintf(msgWeather, city, text))
}

func runNews(ctx context.Context, e *Engine, c call) {
	if e.info == nil {
		return
	}
	titles, err := e.info.FetchNews(ctx, e.cfg.NewsLimit)
	if err != nil {
		e.swallow(c, "news", err)
		return
	}
	lines := []string{msgNewsHeader}
	for _, t := range titles {
		lines = append(lines, "🔹 "+t)
	}
	e.reply(c, strings.Join(lines, "\n"))
}

// runHoroscope fetches the English reading and has the AI put it in the local
// dialect. Translation is free for the sender; any failure sends nothing.
func runHoroscope(ctx context.Context, e *Engine, c call) {
	sign, ok := e.catalog.findSign(c.Text)
	if !ok || e.info == nil || e.ai == nil {
		return
	}
	reading, err := e.info.FetchHoroscope(ctx, sign.Sign)
	if err != nil {
		e.swallow(c, "horoscope", err)
		return
	}
	translated, err := e.ai.Complete(ctx, fmt.Sprintf(msgTranslate, reading))
	if err != nil {
		e.swallow(c, "horoscope_translate", err)
		return
	}
	e.reply(c, fmt.Sprintf(msgHoroscope, sign.Name, translated))
}

func runWouldYouRather(_ context.Context, e *Engine, c call) {
	if len(e.catalog.WouldYouRather) == 0 {
		return
	}
	e.reply(c, fmt.Sprintf(msgWouldRather, e.catalog.WouldYouRather[e.rand(len(e.catalog.WouldYouRather))]))
}

func runTrivia(_ context.Context, e *Engine, c call) {
	pair, ok := e.trivia.Ask(c.Room)
	if !ok {
		return
	}
	e.logger.Info("trivia_asked", "room", c.Room, "country", pair.Country)
	e.reply(c, fmt.Sprintf(msgTriviaAsk, pair.Country))
}

func runHelp(_ context.Context, e *Engine, c call) {
	e.reply(c, msgHelp)
}

func runAI(ctx context.Context, e *Engine, c call) {
	if e.ai == nil {
		return
	}
	answer, err := e.ai.Respond(ctx, c.Room, c.Nick, c.Text, c.admin)
	switch {
	case errors.Is(err, airesponder.ErrInsufficientBalance):
		e.reply(c, fmt.Sprintf(msgAIRefused, c.Nick, e.ai.Cost()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.logger.Warn("ai_abandoned", "room", c.Room, "nick", c.Nick, "error", err.Error())
	case err != nil:
		e.reply(c, msgAIApology)
	case c.admin:
		e.reply(c, answer)
	default:
		e.reply(c, fmt.Sprintf(msgAICostPrefix, e.ai.Cost())+answer)
	}
}
