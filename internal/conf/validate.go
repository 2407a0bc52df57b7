package conf

import (
	"github.com/citia/citewatch/internal/errors"
)

// Validate checks settings for configurations the pipeline cannot run with.
func Validate(settings *Settings) error {
	if !settings.Database.SQLite.Enabled && !settings.Database.MySQL.Enabled {
		return errors.Newf("no database backend enabled, enable sqlite or mysql").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Database.SQLite.Enabled && settings.Database.MySQL.Enabled {
		return errors.Newf("both sqlite and mysql enabled, enable exactly one").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Pipeline.Extract.WindowHours <= 0 {
		return errors.Newf("pipeline.extract.windowhours must be positive, got %d", settings.Pipeline.Extract.WindowHours).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Pipeline.Aggregate.WindowDays <= 0 {
		return errors.Newf("pipeline.aggregate.windowdays must be positive, got %d", settings.Pipeline.Aggregate.WindowDays).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Pipeline.Trend.WindowDays <= 0 {
		return errors.Newf("pipeline.trend.windowdays must be positive, got %d", settings.Pipeline.Trend.WindowDays).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Pipeline.StageTimeout <= 0 {
		return errors.Newf("pipeline.stagetimeout must be positive").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.HTTP.Listen == "" {
		return errors.Newf("http.listen must not be empty").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
