// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "citewatch")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/citewatch.log")
	viper.SetDefault("main.log.maxsizemb", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxagedays", 28)

	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "citewatch.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "citewatch")
	viper.SetDefault("database.mysql.database", "citewatch")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	viper.SetDefault("pipeline.extract.windowhours", 24)
	viper.SetDefault("pipeline.extract.maxconcurrency", 0)
	viper.SetDefault("pipeline.aggregate.windowdays", 7)
	viper.SetDefault("pipeline.trend.windowdays", 7)
	viper.SetDefault("pipeline.stagetimeout", 5*time.Minute)

	viper.SetDefault("notification.email.enabled", false)
	viper.SetDefault("notification.email.url", "")
	viper.SetDefault("notification.slack.enabled", false)
	viper.SetDefault("notification.slack.url", "")
	viper.SetDefault("notification.defaultrecipients", []string{})
	viper.SetDefault("notification.requestsperminute", 60)
	viper.SetDefault("notification.burstsize", 10)
	viper.SetDefault("notification.sendtimeout", 20*time.Second)

	viper.SetDefault("http.listen", ":8080")

	viper.SetDefault("metrics.enabled", true)
}
