package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/quailyquaily/mucbot/internal/airesponder"
	"github.com/quailyquaily/mucbot/internal/infoapi"
	"github.com/quailyquaily/mucbot/internal/ledger"
	"github.com/quailyquaily/mucbot/internal/logutil"
	"github.com/quailyquaily/mucbot/internal/trivia"
	"github.com/quailyquaily/mucbot/internal/xmpp"
	"github.com/quailyquaily/mucbot/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	botNick    = "الشاهين"
	primary    = "boss"
	room       = "lounge@conference.example.org"
	confDomain = "conference.example.org"
)

type sent struct {
	To   string
	Type string
	Body string
}

type recorder struct {
	mu   sync.Mutex
	msgs []sent
	raws []string
}

func (r *recorder) SendMessage(to, typ, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{To: to, Type: typ, Body: body})
}

func (r *recorder) SendRaw(data string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raws = append(r.raws, data)
}

func (r *recorder) take() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Chat(context.Context, llm.Request) (llm.Result, error) {
	return llm.Result{Text: f.text}, f.err
}

type fakeInfo struct {
	err       error
	cities    []string
	signs     []string
	horoscope string
}

func (f *fakeInfo) FetchPrayerTimes(_ context.Context, city string) (infoapi.PrayerTimes, error) {
	f.cities = append(f.cities, city)
	if f.err != nil {
		return infoapi.PrayerTimes{}, f.err
	}
	return infoapi.PrayerTimes{City: city, Fajr: "04:40", Dhuhr: "12:30", Asr: "16:05", Maghrib: "19:20", Isha: "20:45"}, nil
}

func (f *fakeInfo) FetchWeather(_ context.Context, city string) (string, error) {
	f.cities = append(f.cities, city)
	if f.err != nil {
		return "", f.err
	}
	return "Sunny +31°C", nil
}

func (f *fakeInfo) FetchNews(_ context.Context, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"أ", "ب", "ج", "د"}[:limit], nil
}

func (f *fakeInfo) FetchHoroscope(_ context.Context, sign string) (string, error) {
	f.signs = append(f.signs, sign)
	if f.err != nil {
		return "", f.err
	}
	return f.horoscope, nil
}

type harness struct {
	engine   *Engine
	store    *ledger.Store
	out      *recorder
	rooms    *xmpp.Membership
	llm      *fakeLLM
	info     *fakeInfo
	restarts int
}

func newHarness(t *testing.T, pairs ...trivia.Pair) *harness {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "state.json"), ledger.Options{Logger: logutil.Discard()})
	require.NoError(t, err)

	catalog := DefaultCatalog()
	if len(pairs) > 0 {
		catalog.Capitals = pairs
	}
	h := &harness{
		store: store,
		out:   &recorder{},
		llm:   &fakeLLM{text: "أهلين"},
		info:  &fakeInfo{horoscope: "A bright day."},
	}
	h.rooms = xmpp.NewMembership(h.out)
	ai := airesponder.New(h.llm, store, airesponder.Options{Logger: logutil.Discard()})
	h.engine, err = New(Config{
		Nick:               botNick,
		PrimaryAdmin:       primary,
		ConferenceDomain:   confDomain,
		PrayerCity:         "Damascus",
		PrayerCityLabel:    "دمشق",
		DefaultWeatherCity: "Damascus",
	}, Deps{
		Ledger:         store,
		Rooms:          h.rooms,
		Sender:         h.out,
		Info:           h.info,
		AI:             ai,
		Catalog:        catalog,
		RequestRestart: func() { h.restarts++ },
		Logger:         logutil.Discard(),
		Rand:           func(n int) int { return n - 1 },
	})
	require.NoError(t, err)
	return h
}

func (h *harness) deliver(t *testing.T, u xmpp.Unit) {
	t.Helper()
	in, ok := Classify(u, confDomain)
	require.True(t, ok, "unit should classify: %+v", u)
	h.engine.Handle(context.Background(), in)
}

// say posts a public room message.
func (h *harness) say(t *testing.T, nick, body string) {
	h.deliver(t, xmpp.Unit{Kind: xmpp.KindMessage, From: room + "/" + nick, Type: xmpp.TypeGroupchat, Body: body, HasBody: true})
}

// whisper sends a private message through the room.
func (h *harness) whisper(t *testing.T, nick, body string) {
	h.deliver(t, xmpp.Unit{Kind: xmpp.KindMessage, From: room + "/" + nick, Type: xmpp.TypeChat, Body: body, HasBody: true})
}

func (h *harness) points(t *testing.T, nick string) int {
	t.Helper()
	pts, _ := h.store.Points(room, nick)
	return pts
}

func (h *harness) replies() []string {
	var out []string
	for _, m := range h.out.take() {
		out = append(out, m.Body)
	}
	return out
}

func (h *harness) award(t *testing.T, nick string, pts int) {
	t.Helper()
	_, err := h.store.Award(context.Background(), room, nick, pts)
	require.NoError(t, err)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		unit xmpp.Unit
		want Inbound
		ok   bool
	}{
		{
			name: "public",
			unit: xmpp.Unit{Kind: "message", From: room + "/sami", Type: "groupchat", Body: "  hi ", HasBody: true},
			want: Inbound{Origin: OriginPublic, Room: room, Nick: "sami", Body: "hi", ReplyTo: room, ReplyType: "groupchat"},
			ok:   true,
		},
		{
			name: "private in room",
			unit: xmpp.Unit{Kind: "message", From: room + "/sami", Type: "chat", Body: "hi", HasBody: true},
			want: Inbound{Origin: OriginPrivateInRoom, Room: room, Nick: "sami", Body: "hi", ReplyTo: room + "/sami", ReplyType: "chat"},
			ok:   true,
		},
		{
			name: "direct",
			unit: xmpp.Unit{Kind: "message", From: "sami@example.org/phone", Type: "chat", Body: "hi", HasBody: true},
			want: Inbound{Origin: OriginDirect, Room: "sami@example.org", Nick: "sami", Body: "hi", ReplyTo: "sami@example.org/phone", ReplyType: "chat"},
			ok:   true,
		},
		{name: "no body", unit: xmpp.Unit{Kind: "message", From: room + "/sami", Type: "groupchat"}},
		{name: "blank body", unit: xmpp.Unit{Kind: "message", From: room + "/sami", Type: "groupchat", Body: "  ", HasBody: true}},
		{name: "room subject", unit: xmpp.Unit{Kind: "message", From: room, Type: "groupchat", Body: "topic", HasBody: true}},
		{name: "error type", unit: xmpp.Unit{Kind: "message", From: room + "/sami", Type: "error", Body: "x", HasBody: true}},
		{name: "presence", unit: xmpp.Unit{Kind: "presence", From: room + "/sami"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Classify(tc.unit, confDomain)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestPublicMessagesEarnPointsWithoutAddressing(t *testing.T) {
	h := newHarness(t)
	h.say(t, "sami", "مرحبا")
	h.say(t, "sami", "نقاطي")
	assert.Empty(t, h.replies())
	assert.Equal(t, 2, h.points(t, "sami"))

	h.say(t, "sami", botNick+": نقاطي")
	assert.Equal(t, []string{"⭐ معك 3 نقطة بهالروم."}, h.replies())
}

func TestIgnoresOwnMessages(t *testing.T) {
	h := newHarness(t)
	h.say(t, botNick, botNick+" نقاطي")
	assert.Empty(t, h.replies())
	_, ok := h.store.Points(room, botNick)
	assert.False(t, ok)
}

func TestGreetingOnEmptyAddress(t *testing.T) {
	h := newHarness(t)
	h.say(t, "sami", botNick+" :")
	assert.Equal(t, []string{"لبيه يا sami، أنا الشاهين معك.. تفضل شو بدك؟"}, h.replies())
}

func TestScenarioPointsAndGift(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 6; i++ {
		h.say(t, "sami", "سلام")
	}
	h.whisper(t, "sami", "نقاطي")
	msgs := h.out.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, sent{To: room + "/sami", Type: "chat", Body: "⭐ معك 6 نقطة بهالروم."}, msgs[0])

	for i := 0; i < 3; i++ {
		h.say(t, "rami", "هلا")
	}
	h.whisper(t, "rami", "أهدي 3 لـ sami")
	assert.Equal(t, []string{"🎁 rami أهدى 3 نقطة لـ sami بهالروم. كفو!"}, h.replies())
	assert.Equal(t, 9, h.points(t, "sami"))
	assert.Equal(t, 0, h.points(t, "rami"))
}

func TestGiftRejectsShortBalanceAndBadSyntax(t *testing.T) {
	h := newHarness(t)
	h.award(t, "rami", 2)

	h.whisper(t, "rami", "أهدي 10 لـ sami")
	h.whisper(t, "rami", "أهدي كتير لـ sami")
	h.whisper(t, "rami", "أهدي 5 sami")
	h.whisper(t, "rami", "أهدي -5 لـ sami")
	assert.Equal(t, []string{
		"❌ نقاطك ما بتكفي بهالروم يا rami!",
		"❗ الطريقة غلط.. جرب: أهدي 50 لـ فلان",
		"❗ الطريقة غلط.. جرب: أهدي 50 لـ فلان",
		"❗ الطريقة غلط.. جرب: أهدي 50 لـ فلان",
	}, h.replies())
	assert.Equal(t, 2, h.points(t, "rami"))
	_, ok := h.store.Points(room, "sami")
	assert.False(t, ok)
}

func TestAdminGiftCreatesRecipient(t *testing.T) {
	h := newHarness(t)
	h.whisper(t, primary, "أهدي 40 لـ ابن البلد")
	assert.Equal(t, []string{"🎁 الزعيم boss عطى هدية 40 نقطة لـ ابن البلد بهالروم!"}, h.replies())
	assert.Equal(t, 40, h.points(t, "ابن البلد"))
	_, ok := h.store.Points(room, primary)
	assert.False(t, ok)
}

func TestLeaderboardMatchesSubstring(t *testing.T) {
	h := newHarness(t)
	for nick, pts := range map[string]int{"a": 10, "b": 30, "c": 5, "d": 20, "e": 1, "f": 50} {
		h.award(t, nick, pts)
	}
	h.whisper(t, "zed", "مين بالتوب هلق؟")
	got := h.replies()
	require.Len(t, got, 1)
	assert.Equal(t, strings.Join([]string{
		"🏆 أفضل 5 بهالروم:",
		"1️⃣ f: 50 نقطة",
		"2️⃣ b: 30 نقطة",
		"3️⃣ d: 20 نقطة",
		"4️⃣ a: 10 نقطة",
		"5️⃣ c: 5 نقطة",
	}, "\n"), got[0])
}

func TestLeaderboardEmptyRoom(t *testing.T) {
	h := newHarness(t)
	h.whisper(t, "zed", "توب")
	assert.Equal(t, []string{"❗ ما في بيانات لهالروم لسا."}, h.replies())
}

func TestPointsOf(t *testing.T) {
	h := newHarness(t)
	h.award(t, "sami", 12)
	h.whisper(t, "zed", "نقاط sami")
	h.whisper(t, "zed", "نقاط nobody")
	assert.Equal(t, []string{"📌 sami معه 12 نقطة بهالروم.", "❗ ما لقيت nobody بهالروم."}, h.replies())
}

func TestAdminSeesUnlimitedPoints(t *testing.T) {
	h := newHarness(t)
	h.whisper(t, primary, "نقاطي")
	assert.Equal(t, []string{"⭐ يا زعيم boss، نقاطك لا نهائية (∞)!"}, h.replies())
}

func TestAdminGrantAndRevoke(t *testing.T) {
	h := newHarness(t)

	h.whisper(t, "sami", "اعطاء ادمن لـ rami")
	h.whisper(t, primary, "اعطاء ادمن لـ rami")
	h.whisper(t, primary, "إعطاء ادمن لـ rami")
	h.whisper(t, primary, "اعطاء ادمن")
	assert.Equal(t, []string{
		"❌ هاد الأمر للآدمن الأساسي فقط.",
		"✅ rami صار آدمن رسمي عند الشاهين السوري 🔥",
		"ℹ️ rami أصلاً آدمن من قبل.",
		"❗ الصيغة الصحيحة: إعطاء ادمن لـ <الاسم>",
	}, h.replies())
	assert.Equal(t, []string{"rami"}, h.store.Admins())
	assert.True(t, h.engine.IsAdmin("rami"))

	h.whisper(t, primary, "سحب الادمن من rami")
	h.whisper(t, primary, "سحب ادمن من rami")
	assert.Equal(t, []string{"❌ تم سحب رتبة الآدمن من rami.", "ℹ️ rami مو آدمن أساساً."}, h.replies())
	assert.Empty(t, h.store.Admins())
	assert.True(t, h.engine.IsAdmin(primary))
}

func TestZeroCommandsRequireAdmin(t *testing.T) {
	h := newHarness(t)
	h.award(t, "sami", 20)
	h.award(t, "rami", 8)

	// Non-admins fall through to the AI rule, which refuses without points.
	h.whisper(t, "zed", "صفّر sami")
	assert.Equal(t, []string{"❌ يا zed، لازم يكون معك 5 نقاط على الأقل لتسألني. اجمع نقاط وارجع لعندي!"}, h.replies())
	assert.Equal(t, 20, h.points(t, "sami"))

	h.whisper(t, primary, "صفّر sami")
	h.whisper(t, primary, "صفّر nobody")
	assert.Equal(t, []string{"🔄 صفّرت نقاط sami بهالروم.", "❗ ما لقيت nobody بهالروم."}, h.replies())
	assert.Equal(t, 0, h.points(t, "sami"))
	assert.Equal(t, 8, h.points(t, "rami"))

	h.whisper(t, primary, "صفّر الكل")
	assert.Equal(t, []string{"🧨 تم تصفير نقاط الجميع بهالروم!"}, h.replies())
	assert.Equal(t, 0, h.points(t, "rami"))
}

func TestAIRefusesBelowCost(t *testing.T) {
	h := newHarness(t)
	h.award(t, "sami", 4)
	h.whisper(t, "sami", "كيفك اليوم")
	assert.Equal(t, []string{"❌ يا sami، لازم يكون معك 5 نقاط على الأقل لتسألني. اجمع نقاط وارجع لعندي!"}, h.replies())
	assert.Equal(t, 4, h.points(t, "sami"))
}

func TestAIRefundsOnFailure(t *testing.T) {
	h := newHarness(t)
	h.llm.err = errors.New("overloaded")
	h.award(t, "sami", 5)
	h.whisper(t, "sami", "كيفك اليوم")
	assert.Equal(t, []string{"⚠️ عذراً، حالياً في ضغط كبير وما قدرت رد، نقاطك رجعتلك!"}, h.replies())
	assert.Equal(t, 5, h.points(t, "sami"))
}

func TestAIChargesNonAdmins(t *testing.T) {
	h := newHarness(t)
	h.award(t, "sami", 7)
	h.whisper(t, "sami", "كيفك اليوم")
	h.whisper(t, primary, "كيفك اليوم")
	assert.Equal(t, []string{"💸 (تم خصم 5 نقاط) - أهلين", "أهلين"}, h.replies())
	assert.Equal(t, 2, h.points(t, "sami"))
}

func TestTriviaFlow(t *testing.T) {
	h := newHarness(t, trivia.Pair{Country: "سوريا", Capital: "دمشق"})

	h.whisper(t, "sami", "سؤال عاصمة")
	assert.Equal(t, []string{"🌍 شو عاصمة سوريا؟ (أول واحد بجاوب صح بياخد 50 نقطة! 💰)"}, h.replies())

	h.say(t, "sami", "بيروت")
	assert.Empty(t, h.replies())
	assert.Equal(t, 1, h.points(t, "sami"))

	h.say(t, "rami", "دمشق")
	msgs := h.out.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, sent{To: room, Type: "groupchat", Body: "✅ كفو يا rami! الجواب صح (دمشق)، ربحت 50 نقطة! 🏆"}, msgs[0])
	assert.Equal(t, 50, h.points(t, "rami"))

	h.say(t, "sami", "دمشق")
	assert.Empty(t, h.replies())
	assert.Equal(t, 2, h.points(t, "sami"))
}

func TestRestartKeyword(t *testing.T) {
	h := newHarness(t)
	h.say(t, "sami", "ريست")
	assert.Equal(t, 0, h.restarts)

	h.say(t, primary, "ريست")
	h.whisper(t, primary, "تحديث")
	assert.Equal(t, 2, h.restarts)
	assert.Empty(t, h.replies())
}

func TestInsultsAreLoggedPerTerm(t *testing.T) {
	h := newHarness(t)
	h.say(t, "sami", "انت غبي وحمار")
	h.whisper(t, "sami", "غبي")
	got := h.store.Insults(room)
	require.Len(t, got, 2)
	assert.Equal(t, "sami", got[0].Nick)
	assert.Equal(t, "انت غبي وحمار", got[0].Msg)
}

func TestJoinLeaveAndList(t *testing.T) {
	h := newHarness(t)
	h.whisper(t, "sami", "فوت سهرة")
	assert.Equal(t, []string{"✅ دخلت روم سهرة."}, h.replies())
	assert.Equal(t, []string{"سهرة@" + confDomain}, h.rooms.List())

	h.award(t, "sami", 5)
	h.whisper(t, "sami", "اطلع سهرة")
	assert.Equal(t, []string{"💸 (تم خصم 5 نقاط) - أهلين"}, h.replies())
	assert.True(t, h.rooms.Contains("سهرة@"+confDomain))

	h.whisper(t, primary, "ادخل other@muc.example.net")
	h.whisper(t, primary, "روماتك")
	assert.Equal(t, []string{
		"✔ دخلت روم other@muc.example.net.",
		"📡 الرومات الحالية:\n• سهرة@" + confDomain + "\n• other@muc.example.net",
	}, h.replies())

	h.whisper(t, primary, "اطلع سهرة")
	h.whisper(t, primary, "اخرج other@muc.example.net")
	h.whisper(t, primary, "روماتك")
	assert.Equal(t, []string{"❌ طلعت من روم سهرة.", "🚪 خرجت من روم other@muc.example.net.", "ما في رومات."}, h.replies())
	assert.Contains(t, h.out.raws, xmpp.BuildJoinPresence("سهرة@"+confDomain, botNick))
	assert.Contains(t, h.out.raws, xmpp.BuildLeavePresence("سهرة@"+confDomain, botNick))
}

func TestInfoCommands(t *testing.T) {
	h := newHarness(t)
	h.whisper(t, "sami", "اوقات الصلاة")
	h.whisper(t, "sami", "طقس")
	h.whisper(t, "sami", "طقس Aleppo")
	h.whisper(t, "sami", "أخبار")
	assert.Equal(t, []string{
		"🕌 دمشق: فجر 04:40، ظهر 12:30، عصر 16:05، مغرب 19:20، عشاء 20:45",
		"🌡️ طقس Damascus: Sunny +31°C",
		"🌡️ طقس Aleppo: Sunny +31°C",
		"📰 آخر الأخبار:\n🔹 أ\n🔹 ب\n🔹 ج",
	}, h.replies())
	assert.Equal(t, []string{"Damascus", "Damascus", "Aleppo"}, h.info.cities)
}

func TestHoroscopeIsTranslatedForFree(t *testing.T) {
	h := newHarness(t)
	h.llm.text = "يوم حلو"
	h.whisper(t, "sami", "برج الأسد")
	assert.Equal(t, []string{"✨ حظ برج أسد اليوم: يوم حلو"}, h.replies())
	assert.Equal(t, []string{"leo"}, h.info.signs)
	_, ok := h.store.Points(room, "sami")
	assert.False(t, ok)

	h.whisper(t, "sami", "برج غريب")
	assert.Empty(t, h.replies())
}

func TestExternalFailuresAreSilent(t *testing.T) {
	h := newHarness(t)
	h.info.err = errors.New("down")
	for _, body := range []string{"صلاة", "طقس", "أخبار", "برج حوت"} {
		h.whisper(t, "sami", body)
	}
	assert.Empty(t, h.replies())

	h.info.err = nil
	h.llm.err = errors.New("down")
	h.whisper(t, "sami", "برج حوت")
	assert.Empty(t, h.replies())
}

func TestFlavorCommands(t *testing.T) {
	h := newHarness(t)
	h.whisper(t, "sami", "حظي اليوم")
	h.whisper(t, "sami", "ذكاء")
	h.whisper(t, "sami", "خيروك")
	h.whisper(t, "sami", "حب")
	h.award(t, "rami", 1)
	h.whisper(t, "sami", "حب")
	assert.Equal(t, []string{
		"🔮 حظّك 100%… افتح مشروع فوراً 😂🔥",
		"🧠 نسبة الذكاء عندك: 100%",
		"🤔 لو خيروك: تخسر موبايلك أسبوع 📱 ولا تخسر الأكل اللي بتحبه شهر؟ 🍔",
		"😅 ما في حدا بالروم أعمل عليه مطابقة حب!",
		"❤️ يا sami… حظّك بالحب مع rami: 100%\n🔥 والله شكلكم مكتوبين لبعض!",
	}, h.replies())
}

func TestLuckBands(t *testing.T) {
	cases := map[int]string{
		0:   "🔮 حظّك هلق 0%… لا تطلع من البيت 😂",
		19:  "🔮 حظّك هلق 19%… دير بالك ع حالك اليوم.",
		20:  "🔮 حظّك هلق 20%… ماشي الحال، نص نص.",
		79:  "🔮 حظّك هلق 79%… وضعك طيب، كمّل هيك.",
		99:  "🔮 حظّك هلق 99%… اليوم يومك يا زلمة!",
		100: "🔮 حظّك 100%… افتح مشروع فوراً 😂🔥",
	}
	for luck, want := range cases {
		assert.Equal(t, want, luckPhrase(luck), "luck %d", luck)
	}
}

func TestHelp(t *testing.T) {
	h := newHarness(t)
	h.say(t, "sami", botNick+" اوامر")
	assert.Equal(t, []string{msgHelp}, h.replies())
}

func TestLoadCatalog(t *testing.T) {
	def := DefaultCatalog()
	assert.Len(t, def.Capitals, 5)
	assert.Len(t, def.Zodiac, 12)
	assert.Len(t, def.WouldYouRather, 3)
	assert.Equal(t, []string{"غبي", "حمار", "تافه", "كلب"}, def.FlaggedTerms)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capitals:\n  - {country: الأردن, capital: عمان}\n"), 0o600))
	got, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []trivia.Pair{{Country: "الأردن", Capital: "عمان"}}, got.Capitals)
	assert.Equal(t, def.Zodiac, got.Zodiac)

	require.NoError(t, os.WriteFile(path, []byte("capitals:\n  - {country: الأردن}\n"), 0o600))
	_, err = LoadCatalog(path)
	require.Error(t, err)
}
