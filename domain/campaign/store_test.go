package campaign

import (
	"database/sql"
	"testing"

	"github.com/echomail/echomail/domain/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesNotifications(t *testing.T) {
	s := NewStore()

	ch, cancel := s.Subscribe("ann@x.com")
	defer cancel()

	s.notify(Campaign{ID: 1, UserEmail: "ann@x.com", Subject: "hi"})

	select {
	case got := <-ch:
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, "hi", got.Subject)
	default:
		t.Fatal("expected a buffered notification")
	}

	// Other users' campaigns don't cross over.
	s.notify(Campaign{ID: 2, UserEmail: "bob@y.com"})
	select {
	case got := <-ch:
		t.Fatalf("unexpected notification for %q", got.UserEmail)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := NewStore()

	ch, cancel := s.Subscribe("ann@x.com")
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Notifying after unsubscribe must not panic on the closed channel.
	assert.NotPanics(t, func() {
		s.notify(Campaign{UserEmail: "ann@x.com"})
	})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	s := NewStore()

	ch, cancel := s.Subscribe("ann@x.com")
	defer cancel()

	// Overfill the buffer; notify must never block.
	for i := 0; i < 20; i++ {
		s.notify(Campaign{ID: int64(i), UserEmail: "ann@x.com"})
	}
	assert.Equal(t, 8, len(ch))
}

func TestCampaignResults(t *testing.T) {
	c := Campaign{SendResults: sql.NullString{
		String: `[{"email":"a@x.com","status":"success"},{"email":"b@x.com","status":"error","error":"nope"}]`,
		Valid:  true,
	}}

	results := c.results()
	require.Len(t, results, 2)
	assert.Equal(t, message.StatusSuccess, results[0].Status)
	assert.Equal(t, "nope", results[1].Error)

	var empty Campaign
	assert.Nil(t, empty.results())
}
