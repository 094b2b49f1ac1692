// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "MicroScan-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/microscan.log")
	viper.SetDefault("main.log.maxsizemb", 10)
	viper.SetDefault("main.log.maxbackups", 10)

	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", "5000")
	viper.SetDefault("webserver.logpath", "logs/api.log")

	viper.SetDefault("upload.path", "uploads")
	viper.SetDefault("upload.maxsizemb", 16)
	viper.SetDefault("upload.allowedextensions", []string{
		"png", "jpg", "jpeg", "gif", "bmp", "tiff", "webp", "jfif", "heic", "heif", "svg",
	})

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "microscan.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "microscan")
	viper.SetDefault("output.mysql.password", "microscan")
	viper.SetDefault("output.mysql.database", "microscan")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.smtphost", "smtp.gmail.com")
	viper.SetDefault("email.smtpport", 587)
	viper.SetDefault("email.usetls", true)
	viper.SetDefault("email.from", "noreply@microscan.local")
	viper.SetDefault("email.timeout", 30*time.Second)
	viper.SetDefault("email.dashboardurl", "http://localhost:3000")

	viper.SetDefault("statistics.cachettl", 30*time.Second)
}
