package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/mmcdole/gifterm/internal/domain"
)

// APIKeyName is the name the Giphy key is published under in the environment
const APIKeyName = "GIPHY_API_KEY"

// Lookup reports the value stored under key and whether the key exists
type Lookup func(key string) (string, bool)

// Reasons a secret lookup fails
const (
	ReasonMissing = "missing"
	ReasonEmpty   = "empty"
	ReasonInvalid = "invalid"
)

// SecretError describes why a secret could not be resolved
type SecretError struct {
	Key    string
	Reason string
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret %s is %s", e.Key, e.Reason)
}

func (e *SecretError) Unwrap() error { return domain.ErrConfiguration }

// indirection matches $(NAME) and ${NAME}
var indirection = regexp.MustCompile(`^\$(?:\(([^)]*)\)|\{([^}]*)\})$`)

// resolver is one step of the chain. It returns the value when found,
// "" with a nil error when the key is absent, or an error that stops the chain.
type resolver func() (string, error)

// ResolveSecret looks key up in the packaged settings, then in the
// environment. A packaged value of the form $(NAME) or ${NAME} is an
// indirection: NAME is resolved from the environment, then from the
// packaged settings. Empty values are errors at every step.
func ResolveSecret(key string, packaged, env Lookup) (string, error) {
	chain := []resolver{
		packagedResolver(key, packaged, env),
		lookupResolver(key, env),
	}
	for _, resolve := range chain {
		value, err := resolve()
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}
	}
	return "", &SecretError{Key: key, Reason: ReasonMissing}
}

func packagedResolver(key string, packaged, env Lookup) resolver {
	return func() (string, error) {
		raw, ok := packaged(key)
		if !ok {
			return "", nil
		}
		if raw == "" {
			return "", &SecretError{Key: key, Reason: ReasonEmpty}
		}

		m := indirection.FindStringSubmatch(raw)
		if m == nil {
			return raw, nil
		}
		name := strings.TrimSpace(m[1] + m[2])
		if name == "" {
			return "", &SecretError{Key: key, Reason: ReasonInvalid}
		}
		for _, resolve := range []resolver{lookupResolver(name, env), lookupResolver(name, packaged)} {
			value, err := resolve()
			if err != nil || value != "" {
				return value, err
			}
		}
		return "", &SecretError{Key: name, Reason: ReasonMissing}
	}
}

func lookupResolver(key string, lookup Lookup) resolver {
	return func() (string, error) {
		value, ok := lookup(key)
		switch {
		case !ok:
			return "", nil
		case value == "":
			return "", &SecretError{Key: key, Reason: ReasonEmpty}
		default:
			return value, nil
		}
	}
}

// packagedAliases maps published secret names to their config file keys
var packagedAliases = map[string]string{
	APIKeyName: "giphy.api_key",
}

// PackagedLookup reads keys set in the config file of v
func PackagedLookup(v *viper.Viper) Lookup {
	return func(key string) (string, bool) {
		if alias, ok := packagedAliases[key]; ok {
			key = alias
		}
		if !v.InConfig(key) {
			return "", false
		}
		return v.GetString(key), true
	}
}

// APIKey resolves the Giphy API key from the config file and the environment
func APIKey(v *viper.Viper) (string, error) {
	return ResolveSecret(APIKeyName, PackagedLookup(v), os.LookupEnv)
}
