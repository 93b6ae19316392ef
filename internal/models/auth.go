package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/dohr-michael/pairvox/internal/config"
)

// AuthKind says how a credential is presented to the provider.
type AuthKind int

const (
	AuthAPIKey AuthKind = iota
	AuthBearerToken
)

type ResolvedAuth struct {
	Kind  AuthKind
	Value string
}

// envKeys are consulted in order when the config carries no credential.
var envKeys = map[string][]string{
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"mistral":   {"MISTRAL_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// ResolveAuth picks the credential for cfg: auth.token, then auth.api_key,
// then the driver's environment variables. A configured value of the form
// ${NAME} is read from the environment.
func ResolveAuth(cfg config.ProviderConfig) (ResolvedAuth, error) {
	if v := expandCredential(cfg.Auth.Token); v != "" {
		return ResolvedAuth{Kind: AuthBearerToken, Value: v}, nil
	}
	if v := expandCredential(cfg.Auth.APIKey); v != "" {
		return ResolvedAuth{Kind: AuthAPIKey, Value: v}, nil
	}

	keys, ok := envKeys[strings.ToLower(cfg.Driver)]
	if !ok {
		return ResolvedAuth{}, fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return ResolvedAuth{Kind: AuthAPIKey, Value: v}, nil
		}
	}
	return ResolvedAuth{}, fmt.Errorf("%s not set", strings.Join(keys, " or "))
}

func expandCredential(raw string) string {
	s := strings.TrimSpace(raw)
	if name, ok := strings.CutPrefix(s, "${"); ok {
		if name, ok = strings.CutSuffix(name, "}"); ok {
			return os.Getenv(name)
		}
	}
	return s
}
