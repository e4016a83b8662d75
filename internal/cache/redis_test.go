package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRecordEncoding(t *testing.T) {
	rec := GameActionRecord{
		GameID:        uuid.New(),
		ActionIndex:   4,
		ActorPlayerID: 2,
		ActionType:    "building_placed",
		ActionPayload: map[string]interface{}{"kind": "road", "location": "MN"},
		Timestamp:     1700000000000,
	}
	data, err := EncodeAction(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"actor_player_id":2`)

	got, err := DecodeAction(data)
	require.NoError(t, err)
	assert.Equal(t, rec.GameID, got.GameID)
	assert.Equal(t, "MN", got.ActionPayload["location"])
}

func TestDecodeActionRejectsGarbage(t *testing.T) {
	_, err := DecodeAction([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeAction([]byte(`{"action_index":1}`))
	assert.Error(t, err, "records without a game are dropped")
}

func TestQueueNameOverride(t *testing.T) {
	assert.Equal(t, DefaultQueueName, QueueName())
	t.Setenv("HISTORIAN_QUEUE_NAME", "other")
	assert.Equal(t, "other", QueueName())
}
