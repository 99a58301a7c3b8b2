package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	noteID := int64(7)
	cases := []Envelope{
		{
			EventType:  EventCreated,
			ReminderID: 42,
			UserID:     1,
			NoteID:     &noteID,
			DueTime:    time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
			Message:    "Buy milk",
		},
		{
			EventType:  EventTriggered,
			ReminderID: 99,
			UserID:     3,
			DueTime:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			Message:    "水を飲む",
		},
	}
	for _, in := range cases {
		data, err := Encode(in)
		require.NoError(t, err)

		out, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestEncodeNormalizesDueTimeToUTC(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	e := Envelope{
		EventType:  EventCreated,
		ReminderID: 1,
		UserID:     1,
		DueTime:    time.Date(2025, 6, 1, 20, 0, 0, 0, loc),
		Message:    "tz check",
	}
	data, err := Encode(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2025-06-01T12:00:00Z", raw["due_time"])

	out, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, out.DueTime.Equal(e.DueTime))
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string][]byte{
		"not json":           []byte("not json at all"),
		"truncated":          []byte(`{"event_type":"created","reminder_`),
		"empty":              nil,
		"missing event_type": []byte(`{"reminder_id":1,"user_id":1,"message":"x"}`),
		"missing reminder":   []byte(`{"event_type":"created","user_id":1,"message":"x"}`),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedEvent), "want ErrMalformedEvent, got %v", err)
		})
	}
}
