package exposure

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/clock"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/vault"
	"github.com/azvault/go/internal/vault/vaulttest"
)

const testValue = "s3cr3t-p@yload"

type revealerFixture struct {
	fake     *vaulttest.Fake
	log      *audit.Logger
	sched    *clock.Manual
	revealer *Revealer
}

func newRevealerFixture(t *testing.T, opts ...RevealerOption) revealerFixture {
	t.Helper()
	f := revealerFixture{
		fake:  vaulttest.NewFake(),
		log:   audit.NewMemoryLogger(),
		sched: clock.NewManual(),
	}
	f.fake.AddSecret("db-password", testValue)
	f.fake.AddSecret("api-key", "other-value")
	f.revealer = NewRevealer(f.fake, "kv-prod", f.log, f.sched, 30*time.Second, opts...)
	t.Cleanup(f.revealer.Close)
	return f
}

func assertNoValueInAudit(t *testing.T, entries []audit.Entry, values ...string) {
	t.Helper()
	for _, e := range entries {
		fields := []string{e.VaultName, e.Action, e.ItemType, e.ItemName, e.Result}
		if e.Details != nil {
			fields = append(fields, *e.Details)
		}
		for _, field := range fields {
			for _, v := range values {
				assert.NotContains(t, field, v)
			}
		}
	}
}

func TestRevealer_FetchHoldsHidden(t *testing.T) {
	f := newRevealerFixture(t)

	require.NoError(t, f.revealer.Fetch(context.Background(), "db-password"))

	name, ok := f.revealer.Held()
	assert.True(t, ok)
	assert.Equal(t, "db-password", name)
	assert.Equal(t, Hidden, f.revealer.State())

	_, visible := f.revealer.Plaintext()
	assert.False(t, visible)

	value, ok := f.revealer.Value()
	require.True(t, ok)
	assert.Equal(t, testValue, value.Plaintext())
}

func TestRevealer_RevealAndAutoHideDiscards(t *testing.T) {
	f := newRevealerFixture(t)
	require.NoError(t, f.revealer.Fetch(context.Background(), "db-password"))
	require.NoError(t, f.revealer.Reveal())

	plaintext, ok := f.revealer.Plaintext()
	require.True(t, ok)
	assert.Equal(t, testValue, plaintext)

	f.sched.Advance(30 * time.Second)
	assert.Equal(t, Hidden, f.revealer.State())
	_, held := f.revealer.Held()
	assert.False(t, held, "auto-hide discards the value")
}

func TestRevealer_HideKeepsValue(t *testing.T) {
	f := newRevealerFixture(t)
	require.NoError(t, f.revealer.Fetch(context.Background(), "db-password"))
	require.NoError(t, f.revealer.Reveal())

	f.sched.Advance(10 * time.Second)
	f.revealer.Hide()
	f.sched.Advance(time.Minute)

	_, held := f.revealer.Held()
	assert.True(t, held)
	assert.Equal(t, Hidden, f.revealer.State())
}

func TestRevealer_FetchDifferentItemDiscardsPrevious(t *testing.T) {
	f := newRevealerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.revealer.Fetch(ctx, "db-password"))
	require.NoError(t, f.revealer.Reveal())

	require.NoError(t, f.revealer.Fetch(ctx, "api-key"))
	assert.Equal(t, Hidden, f.revealer.State())
	value, _ := f.revealer.Value()
	assert.Equal(t, "other-value", value.Plaintext())
	assert.Equal(t, 0, f.sched.Pending())
}

func TestRevealer_StaleExpiryKeepsNewerFetch(t *testing.T) {
	f := newRevealerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.revealer.Fetch(ctx, "db-password"))
	require.NoError(t, f.revealer.Reveal())

	// the deadline has hidden the timer but its callback has not run yet
	f.revealer.timer.Hide()
	expired := f.revealer.timer.Generation()
	require.NoError(t, f.revealer.Fetch(ctx, "api-key"))

	f.revealer.expire(expired)
	name, held := f.revealer.Held()
	require.True(t, held)
	assert.Equal(t, "api-key", name)
}

func TestRevealer_ClearAndClose(t *testing.T) {
	f := newRevealerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.revealer.Fetch(ctx, "db-password"))
	require.NoError(t, f.revealer.Reveal())

	f.revealer.Clear()
	_, held := f.revealer.Held()
	assert.False(t, held)
	assert.ErrorIs(t, f.revealer.Reveal(), ErrNothingFetched)

	require.NoError(t, f.revealer.Fetch(ctx, "db-password"))
	require.NoError(t, f.revealer.Reveal())
	f.revealer.Close()
	assert.Equal(t, 0, f.sched.Pending(), "no timer survives scope teardown")
	_, held = f.revealer.Held()
	assert.False(t, held)
	assert.ErrorIs(t, f.revealer.Fetch(ctx, "db-password"), ErrClosed)
}

func TestRevealer_Reauth(t *testing.T) {
	var ack confirm.Acknowledgment
	f := newRevealerFixture(t, WithReauth(&ack))
	require.NoError(t, f.revealer.Fetch(context.Background(), "db-password"))

	assert.ErrorIs(t, f.revealer.Reveal(), confirm.ErrRejected)
	assert.Equal(t, Hidden, f.revealer.State())

	ack.Set(true)
	require.NoError(t, f.revealer.Reveal())
	assert.True(t, f.revealer.State().Revealed)
	assert.False(t, ack.Confirmed(), "acknowledgment is consumed by the reveal")

	f.revealer.Hide()
	assert.ErrorIs(t, f.revealer.Reveal(), confirm.ErrRejected)
}

func TestRevealer_InvalidName(t *testing.T) {
	f := newRevealerFixture(t)
	err := f.revealer.Fetch(context.Background(), "bad name")
	assert.ErrorIs(t, err, vault.ErrInvalidName)
	assert.Empty(t, f.fake.Calls())
}

func TestRevealer_AuditNeverCarriesValue(t *testing.T) {
	f := newRevealerFixture(t)
	ctx := context.Background()
	f.fake.FailOn("get", "api-key", errors.New("forbidden"))

	require.NoError(t, f.revealer.Fetch(ctx, "db-password"))
	assert.Error(t, f.revealer.Fetch(ctx, "api-key"))
	assert.ErrorIs(t, f.revealer.Fetch(ctx, "missing"), vault.ErrNotFound)

	entries := f.log.Entries(0)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, audit.ActionGetSecretValue, e.Action)
		require.NotNil(t, e.Details)
		assert.Equal(t, audit.DetailValueRedacted, *e.Details)
	}
	assert.Equal(t, audit.ResultSuccess, entries[0].Result)
	assert.Equal(t, audit.ResultError, entries[1].Result)
	assertNoValueInAudit(t, entries, testValue, "other-value")

	export, err := f.log.SanitizedExport()
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(export), testValue))
}
