package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/febuchner/settlers-of-catan/internal/game"
	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTypedPayloads(t *testing.T) {
	env, req, err := Decode([]byte(`{"type":"build","payload":{"kind":"settlement","location":"MNS"}}`))
	require.NoError(t, err)
	assert.Equal(t, MsgBuild, env.Type)
	b, ok := req.(*BuildRequest)
	require.True(t, ok)
	assert.Equal(t, models.Settlement, b.Kind)
	assert.Equal(t, "MNS", b.Location)

	_, req, err = Decode([]byte(`{"type":"play_knight","payload":{"location":"M","target":2}}`))
	require.NoError(t, err)
	k := req.(*PlayKnightRequest)
	require.NotNil(t, k.Target)
	assert.Equal(t, 2, *k.Target)

	_, req, err = Decode([]byte(`{"type":"play_monopoly","payload":{"resource":"wheat"}}`))
	require.NoError(t, err)
	assert.Equal(t, models.Wheat, req.(*PlayMonopolyRequest).Resource)

	_, req, err = Decode([]byte(`{"type":"end_turn"}`))
	require.NoError(t, err)
	assert.IsType(t, &EndTurnRequest{}, req)
}

func TestDecodeRejectsUnknownAndMalformed(t *testing.T) {
	_, _, err := Decode([]byte(`{"type":"cheat"}`))
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, _, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, _, err = Decode([]byte(`{"type":"build","payload":{"kind":"castle","location":"MNS"}}`))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	id := uuid.New()
	data, err := Encode(id, OfferTradeRequest{Offer: models.Resources{Wood: 1}, Request: models.Resources{Ore: 1}})
	require.NoError(t, err)

	env, req, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, id, env.ID)
	offer := req.(*OfferTradeRequest)
	assert.Equal(t, 1, offer.Offer.Wood)
	assert.Equal(t, 1, offer.Request.Ore)
}

func TestNewAck(t *testing.T) {
	env := Envelope{Type: MsgRollDice, ID: uuid.New()}

	ok := NewAck(env, nil)
	assert.True(t, ok.OK)
	assert.Nil(t, ok.Error)

	rejected := NewAck(env, &game.RuleError{Kind: game.KindInsufficientResources, Message: "need ore"})
	assert.False(t, rejected.OK)
	require.NotNil(t, rejected.Error)
	assert.Equal(t, game.KindInsufficientResources, rejected.Error.Kind)

	data, err := json.Marshal(rejected)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"insufficient_resources"`)

	other := NewAck(env, errors.New("rate limited"))
	assert.Equal(t, game.KindIllegalAction, other.Error.Kind)
}
