package translator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mock answers without calling any API. The text "error" always fails.
type Mock struct {
	delay time.Duration
}

// NewMock creates a Mock that waits delay before answering.
func NewMock(delay time.Duration) *Mock {
	return &Mock{delay: delay}
}

func (m *Mock) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if m.delay > 0 {
		t := time.NewTimer(m.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}

	if strings.EqualFold(text, "error") {
		return "", failed("mock translation failed for text: " + text)
	}
	return fmt.Sprintf("Mock translated text: %s (from %s to %s)", text, sourceLang, targetLang), nil
}
