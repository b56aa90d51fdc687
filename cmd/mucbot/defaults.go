package main

import (
	"time"

	"github.com/quailyquaily/mucbot/internal/airesponder"
	"github.com/quailyquaily/mucbot/internal/commands"
	"github.com/quailyquaily/mucbot/internal/infoapi"
	"github.com/quailyquaily/mucbot/internal/statepaths"
	"github.com/spf13/viper"
)

func initViperDefaults() {
	// XMPP session
	viper.SetDefault("xmpp.server", "")
	viper.SetDefault("xmpp.port", 5222)
	viper.SetDefault("xmpp.jid", "")
	viper.SetDefault("xmpp.password", "")
	viper.SetDefault("xmpp.resource", "")
	viper.SetDefault("xmpp.verify_handshake", false)

	// Bot
	viper.SetDefault("bot.nick", "الشاهين")
	viper.SetDefault("bot.primary_admin", "")
	viper.SetDefault("bot.rooms", []string{})
	viper.SetDefault("bot.conference_domain", "")
	viper.SetDefault("bot.restart_keywords", []string{"ريست", "تحديث"})
	viper.SetDefault("bot.max_concurrency", 4)
	viper.SetDefault("bot.catalog_path", "")

	// AI replies
	viper.SetDefault("ai.cost", airesponder.DefaultCost)
	viper.SetDefault("ai.persona", "")
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.endpoint", "")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.request_timeout", 60*time.Second)
	viper.SetDefault("llm.fallback.provider", "")
	viper.SetDefault("llm.fallback.endpoint", "")
	viper.SetDefault("llm.fallback.api_key", "")
	viper.SetDefault("llm.fallback.model", "")

	// Informational commands
	viper.SetDefault("infoapi.prayer_city", "Damascus")
	viper.SetDefault("infoapi.prayer_city_label", "دمشق")
	viper.SetDefault("infoapi.prayer_country", "Syria")
	viper.SetDefault("infoapi.prayer_method", 4)
	viper.SetDefault("infoapi.prayer_endpoint", infoapi.DefaultPrayerEndpoint)
	viper.SetDefault("infoapi.weather_endpoint", infoapi.DefaultWeatherEndpoint)
	viper.SetDefault("infoapi.default_weather_city", "Damascus")
	viper.SetDefault("infoapi.news_feed_url", infoapi.DefaultNewsFeedURL)
	viper.SetDefault("infoapi.news_limit", commands.DefaultNewsLimit)
	viper.SetDefault("infoapi.horoscope_endpoint", infoapi.DefaultHoroscopeEndpoint)
	viper.SetDefault("infoapi.request_timeout", 15*time.Second)

	// Global
	viper.SetDefault("health.listen", "")
	viper.SetDefault("file_state_dir", "~/.mucbot")
	viper.SetDefault("state.file_name", statepaths.DefaultStateFileName)
	viper.SetDefault("state.save_retries", 4)
	viper.SetDefault("user_agent", "mucbot/1.0 (+https://github.com/quailyquaily)")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)
}
