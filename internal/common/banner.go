package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved source wiring
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("Premarket Scout", GetVersion())

	logger.Info().
		Bool("benzinga", config.Sources.Benzinga.Enabled()).
		Bool("polygon", config.Sources.Polygon.Enabled()).
		Bool("finnhub", config.Sources.Finnhub.Enabled()).
		Bool("eodhd", config.Sources.EODHD.Enabled()).
		Bool("rss", config.RSS.Enabled).
		Bool("cache", config.Cache.Enabled).
		Msg("Data sources")
}
