package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/TranslateGo/internal/domain"
)

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	acc := &domain.Account{ID: "a-1", Email: "jane@example.com"}
	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), acc))
	assert.True(t, ok)
	assert.Same(t, acc, got)

	_, ok = PrincipalFromContext(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)
}
