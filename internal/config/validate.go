package config

import (
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxPageSize is the largest page the Giphy search endpoint accepts
const MaxPageSize = 50

// Validate checks the loaded configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Giphy),
		validation.Field(&c.Search),
		validation.Field(&c.Logging),
	)
}

func (g GiphyConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&g.PageSize, validation.Required, validation.Min(1), validation.Max(MaxPageSize)),
		validation.Field(&g.Rating, validation.In("g", "pg", "pg-13", "r")),
		validation.Field(&g.Timeout, validation.Min(0)),
	)
}

func (s SearchConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Debounce, validation.Min(0)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.By(func(value interface{}) error {
			level, _ := value.(string)
			switch strings.ToUpper(level) {
			case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
				return nil
			}
			return errors.New("must be one of DEBUG, INFO, WARN, ERROR")
		})),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
