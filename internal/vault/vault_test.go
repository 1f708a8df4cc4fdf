package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	valid := []string{"a", "db-conn", "API-Key-2", strings.Repeat("x", MaxNameLength)}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", "bad name", "under_score", "dot.name", strings.Repeat("x", MaxNameLength+1)}
	for _, name := range invalid {
		err := ValidateName(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	err := ValidateName("bad name")
	assert.Contains(t, err.Error(), "letters, numbers, and dashes")
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("x"))
	assert.ErrorIs(t, ValidateValue(""), ErrInvalidValue)
	assert.ErrorIs(t, ValidateValue(strings.Repeat("x", MaxValueLength+1)), ErrInvalidValue)
}

func TestSensitive_NeverRendersPlaintext(t *testing.T) {
	s := NewSensitive("hunter2")
	assert.Equal(t, "hunter2", s.Plaintext())
	assert.Equal(t, Redacted, s.String())
	assert.Equal(t, Redacted, fmt.Sprintf("%v", s))
	assert.Equal(t, Redacted, fmt.Sprintf("%#v", s))

	data, err := json.Marshal(SecretValue{ID: "1", Name: "n", Value: s})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")

	var buf strings.Builder
	logger := zerolog.New(&buf)
	logger.Info().Object("secret", s).Msg("fetched")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestTransportError_Is(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("listing: %w", NewTransportError("list_items", cause))
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
}

type flakyClient struct {
	Client
	failures int
	calls    int
	err      error
}

func (f *flakyClient) ListItems(ctx context.Context, vaultRef string, kind Kind) ([]Item, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []Item{{ID: "1", Name: "a", Kind: kind}}, nil
}

func newTestRetrying(c Client, retries uint64) *Retrying {
	r := NewRetrying(c, retries, zerolog.Nop())
	r.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return r
}

func TestRetrying_RetriesTransient(t *testing.T) {
	inner := &flakyClient{failures: 2, err: fmt.Errorf("busy: %w", ErrTransient)}
	r := newTestRetrying(inner, 3)

	items, err := r.ListItems(context.Background(), "v", KindSecret)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrying_StopsOnPermanent(t *testing.T) {
	inner := &flakyClient{failures: 5, err: ErrNotFound}
	r := newTestRetrying(inner, 3)

	_, err := r.ListItems(context.Background(), "v", KindSecret)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, inner.calls)
}

func TestRetrying_GivesUp(t *testing.T) {
	inner := &flakyClient{failures: 10, err: ErrTransient}
	r := newTestRetrying(inner, 2)

	_, err := r.ListItems(context.Background(), "v", KindSecret)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 3, inner.calls)
}

func TestIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, IDs([]Item{{ID: "a"}, {ID: "b"}}))
	assert.Empty(t, IDs(nil))
}
