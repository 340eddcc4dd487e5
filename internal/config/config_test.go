package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/kiteforlife/kitegrade/internal/config"
	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.SkipRows, convey.ShouldEqual, 11)
			convey.So(cfg.DefaultFile, convey.ShouldEqual, config.DefaultLocalFile)
			convey.So(cfg.AccentMode, convey.ShouldEqual, "strict")
			convey.So(cfg.IdentifierPrefix, convey.ShouldEqual, "Aluno")
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, 2*time.Hour)
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, int64(10<<20))
			convey.So(cfg.RubricFields, convey.ShouldResemble, rubric.DefaultFields)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And the defaults do not alias the rubric", func() {
			cfg.RubricFields[0] = "CHANGED"
			convey.So(rubric.DefaultFields[0], convey.ShouldEqual, "LIDERANÇA")
		})

		convey.Convey("And helpers derive domain values", func() {
			r, err := cfg.Rubric()
			convey.So(err, convey.ShouldBeNil)
			convey.So(r.Len(), convey.ShouldEqual, 10)
			convey.So(cfg.Strictness(), convey.ShouldEqual, header.Strict)

			cfg.AccentMode = "fold"
			convey.So(cfg.Strictness(), convey.ShouldEqual, header.AccentInsensitive)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"negative skip", func(c *config.Config) { c.SkipRows = -1 }},
			{"negative ttl", func(c *config.Config) { c.SessionTTLSeconds = -5 }},
			{"zero upload", func(c *config.Config) { c.MaxUploadBytes = 0 }},
			{"log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"accent mode", func(c *config.Config) { c.AccentMode = "loose" }},
			{"empty rubric", func(c *config.Config) { c.RubricFields = nil }},
			{"duplicate field", func(c *config.Config) { c.RubricFields = []string{"TEORIA", "teoria"} }},
		}

		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
