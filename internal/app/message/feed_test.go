package message

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majlis/internal/app/db"
)

func TestFeedPreservesOrderPerSubscriber(t *testing.T) {
	feed := NewFeed()

	rows := make(chan int64, 10)
	sub := feed.Subscribe(func(row db.MessageRow) { rows <- row.ID })
	defer sub.Unsubscribe()

	for id := int64(1); id <= 5; id++ {
		feed.Publish(db.MessageRow{ID: id})
	}

	for want := int64(1); want <= 5; want++ {
		select {
		case got := <-rows:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("row %d not delivered", want)
		}
	}
}

func TestFeedUnsubscribeIsIdempotent(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(func(db.MessageRow) {})

	assert.Equal(t, 1, feed.Subscribers())
	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Zero(t, feed.Subscribers())
}

func TestDraftNormalize(t *testing.T) {
	d, err := Draft{Text: "  hi  "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "hi", d.Text)

	_, err = Draft{Text: "\n\t"}.Normalize()
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Draft{Text: strings.Repeat("a", MaxTextLength+1)}.Normalize()
	assert.ErrorIs(t, err, ErrTooLong)
}
