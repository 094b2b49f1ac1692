package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded settings for configurations that
// cannot work at runtime.
func ValidateSettings(s *Settings) error {
	if !s.Output.SQLite.Enabled && !s.Output.MySQL.Enabled {
		return fmt.Errorf("no database output enabled, enable either output.sqlite or output.mysql")
	}
	if s.Output.SQLite.Enabled && s.Output.MySQL.Enabled {
		return fmt.Errorf("only one database output may be enabled at a time")
	}
	if s.Upload.Path == "" {
		return fmt.Errorf("upload.path must not be empty")
	}
	if s.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload.maxsizemb must be positive, got %d", s.Upload.MaxSizeMB)
	}
	if len(s.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("upload.allowedextensions must not be empty")
	}
	if s.Email.Enabled {
		if s.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtphost must be set when email is enabled")
		}
		if s.Email.SMTPPort <= 0 || s.Email.SMTPPort > 65535 {
			return fmt.Errorf("email.smtpport out of range: %d", s.Email.SMTPPort)
		}
		if s.Email.From == "" {
			return fmt.Errorf("email.from must be set when email is enabled")
		}
	}
	return nil
}
