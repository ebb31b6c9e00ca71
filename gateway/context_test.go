package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	vc := &ValidationContext{QueryParams: map[string]any{"limit": int64(10)}}
	got, ok := FromContext(NewContext(context.Background(), vc))
	require.True(t, ok)
	assert.Same(t, vc, got)

	_, ok = FromContext(NewContext(context.Background(), nil))
	assert.False(t, ok)
}
