package application_test

import (
	"testing"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/stretchr/testify/assert"
)

func TestIdempotencyStoreOverwrites(t *testing.T) {
	store := application.NewIdempotencyStore()
	assert.Empty(t, store.Current())

	store.Set("key-1")
	assert.Equal(t, "key-1", store.Current())

	store.Set("key-2")
	assert.Equal(t, "key-2", store.Current(), "a new decision overwrites the prior key")

	store.Clear()
	assert.Empty(t, store.Current(), "continue without key clears the prior key")
}

func TestCancellationHub(t *testing.T) {
	hub := application.NewCancellationHub()

	select {
	case <-hub.Done():
		t.Fatal("hub signalled before Cancel")
	default:
	}

	hub.Cancel("url scheme cancellation")
	hub.Cancel("second call ignored")

	<-hub.Done()
	assert.True(t, hub.Cancelled())
	assert.Equal(t, "url scheme cancellation", hub.Reason())

	hub.Reset()
	assert.False(t, hub.Cancelled())
	select {
	case <-hub.Done():
		t.Fatal("hub still signalled after Reset")
	default:
	}
}

func TestPaymentCreationDecisions(t *testing.T) {
	cont := application.ContinuePaymentCreation()
	assert.False(t, cont.Aborted())
	assert.Empty(t, cont.IdempotencyKey())

	withKey := application.ContinuePaymentCreationWithKey("idem-42")
	assert.False(t, withKey.Aborted())
	assert.Equal(t, "idem-42", withKey.IdempotencyKey())

	abort := application.AbortPaymentCreation("cancelled")
	assert.True(t, abort.Aborted())
	assert.Equal(t, "cancelled", abort.ErrorMessage())
}

func TestResumeDecisions(t *testing.T) {
	assert.True(t, application.ResumeCheckoutComplete().Complete())

	fail := application.FailResume("nope")
	assert.True(t, fail.Failed())
	assert.Equal(t, "nope", fail.Message())

	tok, ok := application.ContinueWithNewClientToken("a.b.c").NewClientToken()
	assert.True(t, ok)
	assert.Equal(t, "a.b.c", tok)

	_, ok = application.ResumeCheckoutComplete().NewClientToken()
	assert.False(t, ok)
}
