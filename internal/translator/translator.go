// Package translator provides the machine-translation backends used by the
// translation worker.
package translator

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
	"github.com/utafrali/TranslateGo/pkg/httpclient"
)

// DummyKey is the placeholder API key that selects the mock backend.
const DummyKey = "dummy-key"

// Translator turns text from one language into another.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	APIURL    string
	APIKey    string
	Timeout   time.Duration
	MockDelay time.Duration
}

// UsesMock reports whether no real API key is configured.
func (c Config) UsesMock() bool {
	key := strings.TrimSpace(c.APIKey)
	return key == "" || key == DummyKey
}

// New returns the HTTP backend, or the mock backend when UsesMock is true.
func New(cfg Config, logger *slog.Logger) Translator {
	if cfg.UsesMock() {
		logger.Warn("no translation API key configured, using mock translator")
		return NewMock(cfg.MockDelay)
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.Timeout
	clientCfg.Header = http.Header{"Authorization": []string{"Bearer " + cfg.APIKey}}
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("translate-api"),
		logger,
	)
	return NewHTTPTranslator(client, cfg.APIURL, logger)
}

// failed builds the error returned when the backend understood the request
// but could not translate it. Its message is safe to show to the job owner.
func failed(message string) error {
	return apperrors.New("TRANSLATION_FAILED", message, http.StatusUnprocessableEntity, apperrors.ErrInvalidInput)
}
