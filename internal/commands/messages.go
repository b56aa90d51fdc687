package commands

const (
	msgGreeting = "لبيه يا %s، أنا الشاهين معك.. تفضل شو بدك؟"

	msgPrimaryOnly     = "❌ هاد الأمر للآدمن الأساسي فقط."
	msgGrantUsage      = "❗ الصيغة الصحيحة: إعطاء ادمن لـ <الاسم>"
	msgGranted         = "✅ %s صار آدمن رسمي عند الشاهين السوري 🔥"
	msgAlreadyAdmin    = "ℹ️ %s أصلاً آدمن من قبل."
	msgRevokeUsage     = "❗ الصيغة الصحيحة: سحب ادمن من <الاسم>"
	msgRevoked         = "❌ تم سحب رتبة الآدمن من %s."
	msgNotAdmin        = "ℹ️ %s مو آدمن أساساً."
	msgPointsUnlimited = "⭐ يا زعيم %s، نقاطك لا نهائية (∞)!"
	msgPointsMine      = "⭐ معك %d نقطة بهالروم."
	msgNoPoints        = "❗ ما عندك نقاط بهالروم."
	msgPointsOf        = "📌 %s معه %d نقطة بهالروم."
	msgMemberNotFound  = "❗ ما لقيت %s بهالروم."
	msgTopHeader       = "🏆 أفضل 5 بهالروم:"
	msgTopLine         = "%d️⃣ %s: %d نقطة"
	msgNoRoomData      = "❗ ما في بيانات لهالروم لسا."
	msgZeroedAll       = "🧨 تم تصفير نقاط الجميع بهالروم!"
	msgZeroed          = "🔄 صفّرت نقاط %s بهالروم."
	msgGiftUsage       = "❗ الطريقة غلط.. جرب: أهدي 50 لـ فلان"
	msgGiftByAdmin     = "🎁 الزعيم %s عطى هدية %d نقطة لـ %s بهالروم!"
	msgGiftSent        = "🎁 %s أهدى %d نقطة لـ %s بهالروم. كفو!"
	msgGiftShort       = "❌ نقاطك ما بتكفي بهالروم يا %s!"

	msgJoined       = "✅ دخلت روم %s."
	msgJoinedAdmin  = "✔ دخلت روم %s."
	msgLeft         = "🚪 خرجت من روم %s."
	msgLeftAlt      = "❌ طلعت من روم %s."
	msgRoomsHeader  = "📡 الرومات الحالية:"
	msgNoRooms      = "ما في رومات."
	msgPrayer       = "🕌 %s: فجر %s، ظهر %s، عصر %s، مغرب %s، عشاء %s"
	msgWeather      = "🌡️ طقس %s: %s"
	msgNewsHeader   = "📰 آخر الأخبار:"
	msgHoroscope    = "✨ حظ برج %s اليوم: %s"
	msgTranslate    = "ترجم بلهجة شامية: %s"
	msgWouldRather  = "🤔 لو خيروك: %s"
	msgTriviaAsk    = "🌍 شو عاصمة %s؟ (أول واحد بجاوب صح بياخد 50 نقطة! 💰)"
	msgTriviaWin    = "✅ كفو يا %s! الجواب صح (%s)، ربحت %d نقطة! 🏆"
	msgHelp         = "🔹 الأوامر: (طقس، صلاة، أخبار، برج، خيروك، عاصمة، نقاطي، نقاط <اسم>، توب، روماتك، فوت <اسم>، اطلع <اسم>، أهدي <رقم> لـ <اسم>، صفّر <اسم>، صفّر الكل، حظ، حب، جمال، ذكاء)"
	msgAIRefused    = "❌ يا %s، لازم يكون معك %d نقاط على الأقل لتسألني. اجمع نقاط وارجع لعندي!"
	msgAICostPrefix = "💸 (تم خصم %d نقاط) - "
	msgAIApology    = "⚠️ عذراً، حالياً في ضغط كبير وما قدرت رد، نقاطك رجعتلك!"

	msgLoveNobody = "😅 ما في حدا بالروم أعمل عليه مطابقة حب!"
	msgLove       = "❤️ يا %s… حظّك بالحب مع %s: %d%%\n%s"
)
