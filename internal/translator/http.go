package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
	"github.com/utafrali/TranslateGo/pkg/httpclient"
)

const downstream = "translate-api"

// Doer sends a request. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPTranslator calls a JSON translation API shaped like Google Translate v2.
type HTTPTranslator struct {
	client Doer
	url    string
	logger *slog.Logger
}

// NewHTTPTranslator creates an HTTPTranslator posting to url.
func NewHTTPTranslator(client Doer, url string, logger *slog.Logger) *HTTPTranslator {
	return &HTTPTranslator{client: client, url: url, logger: logger}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (t *HTTPTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(translateRequest{Q: text, Source: sourceLang, Target: targetLang, Format: "text"})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := t.client.Do(ctx, req)
	if err != nil {
		var statusErr *httpclient.StatusError
		switch {
		case errors.Is(err, httpclient.ErrCircuitOpen):
			return "", apperrors.Unavailable(downstream + " is unavailable")
		case errors.As(err, &statusErr):
			return "", apperrors.New("DOWNSTREAM_ERROR",
				fmt.Sprintf("%s returned %d", downstream, statusErr.StatusCode),
				http.StatusBadGateway, err)
		}
		return "", fmt.Errorf("call %s: %w", downstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", httpclient.ParseResponseError(resp, downstream)
	}
	defer func() { _ = resp.Body.Close() }()

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s response: %w", downstream, err)
	}
	if len(out.Data.Translations) == 0 {
		return "", failed(downstream + " returned no translation")
	}

	t.logger.DebugContext(ctx, "text translated",
		slog.String("source_lang", sourceLang),
		slog.String("target_lang", targetLang),
	)
	return out.Data.Translations[0].TranslatedText, nil
}
