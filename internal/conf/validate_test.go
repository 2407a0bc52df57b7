package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Database.SQLite.Enabled = true
	s.Database.SQLite.Path = "citewatch.db"
	s.Pipeline.Extract.WindowHours = 24
	s.Pipeline.Aggregate.WindowDays = 7
	s.Pipeline.Trend.WindowDays = 7
	s.Pipeline.StageTimeout = 5 * time.Minute
	s.HTTP.Listen = ":8080"
	return s
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:   "valid settings",
			mutate: func(s *Settings) {},
		},
		{
			name: "no database backend",
			mutate: func(s *Settings) {
				s.Database.SQLite.Enabled = false
			},
			wantErr: "no database backend",
		},
		{
			name: "both database backends",
			mutate: func(s *Settings) {
				s.Database.MySQL.Enabled = true
			},
			wantErr: "exactly one",
		},
		{
			name: "zero extract window",
			mutate: func(s *Settings) {
				s.Pipeline.Extract.WindowHours = 0
			},
			wantErr: "windowhours must be positive",
		},
		{
			name: "negative aggregate window",
			mutate: func(s *Settings) {
				s.Pipeline.Aggregate.WindowDays = -1
			},
			wantErr: "windowdays must be positive",
		},
		{
			name: "zero trend window",
			mutate: func(s *Settings) {
				s.Pipeline.Trend.WindowDays = 0
			},
			wantErr: "windowdays must be positive",
		},
		{
			name: "zero stage timeout",
			mutate: func(s *Settings) {
				s.Pipeline.StageTimeout = 0
			},
			wantErr: "stagetimeout must be positive",
		},
		{
			name: "empty listen address",
			mutate: func(s *Settings) {
				s.HTTP.Listen = ""
			},
			wantErr: "http.listen must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)
			err := Validate(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
