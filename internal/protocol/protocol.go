// Package protocol defines the client request messages and their JSON framing.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/game"
	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
)

// MessageType tags an inbound request.
type MessageType string

const (
	MsgJoin             MessageType = "join"
	MsgReady            MessageType = "ready"
	MsgRollDice         MessageType = "roll_dice"
	MsgBuild            MessageType = "build"
	MsgDiscard          MessageType = "discard"
	MsgMoveRobber       MessageType = "move_robber"
	MsgPlayKnight       MessageType = "play_knight"
	MsgPlayRoadBuilding MessageType = "play_road_building"
	MsgPlayMonopoly     MessageType = "play_monopoly"
	MsgPlayYearOfPlenty MessageType = "play_year_of_plenty"
	MsgOfferTrade       MessageType = "offer_trade"
	MsgRespondTrade     MessageType = "respond_trade"
	MsgExecuteTrade     MessageType = "execute_trade"
	MsgAbandonTrade     MessageType = "abandon_trade"
	MsgMaritimeTrade    MessageType = "maritime_trade"
	MsgBuyDevCard       MessageType = "buy_development_card"
	MsgSendChat         MessageType = "send_chat"
	MsgEndTurn          MessageType = "end_turn"
	MsgRequestSnapshot  MessageType = "request_snapshot"
	MsgPing             MessageType = "ping"
)

// ErrUnknownType is returned for a type tag outside the closed set above.
var ErrUnknownType = errors.New("unknown message type")

// Envelope is the frame every request travels in. ID is optional and echoed in the ack.
type Envelope struct {
	Type    MessageType     `json:"type"`
	ID      uuid.UUID       `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is implemented by every payload type; the set is closed.
type Request interface {
	Type() MessageType
}

type JoinRequest struct {
	Name     string       `json:"name"`
	Color    models.Color `json:"color"`
	Password string       `json:"password,omitempty"`
}

type ReadyRequest struct{}

type RollDiceRequest struct{}

type BuildRequest struct {
	Kind     models.BuildingKind `json:"kind"`
	Location string              `json:"location"`
}

type DiscardRequest struct {
	Resources models.Resources `json:"resources"`
}

// MoveRobberRequest also serves the knight card. Target is optional.
type MoveRobberRequest struct {
	Location string `json:"location"`
	Target   *int   `json:"target,omitempty"`
}

type PlayKnightRequest MoveRobberRequest

type PlayRoadBuildingRequest struct {
	First  string `json:"first"`
	Second string `json:"second,omitempty"`
}

type PlayMonopolyRequest struct {
	Resource models.ResourceType `json:"resource"`
}

type PlayYearOfPlentyRequest struct {
	First  models.ResourceType `json:"first"`
	Second models.ResourceType `json:"second"`
}

type OfferTradeRequest struct {
	Offer   models.Resources `json:"offer"`
	Request models.Resources `json:"request"`
}

type RespondTradeRequest struct {
	TradeID int  `json:"trade_id"`
	Accept  bool `json:"accept"`
}

type ExecuteTradeRequest struct {
	TradeID      int `json:"trade_id"`
	Counterparty int `json:"counterparty"`
}

type AbandonTradeRequest struct {
	TradeID int `json:"trade_id"`
}

type MaritimeTradeRequest struct {
	Offer   models.Resources `json:"offer"`
	Request models.Resources `json:"request"`
}

type BuyDevCardRequest struct{}

type SendChatRequest struct {
	Text string `json:"text"`
}

type EndTurnRequest struct{}

type RequestSnapshotRequest struct{}

type PingRequest struct{}

func (JoinRequest) Type() MessageType             { return MsgJoin }
func (ReadyRequest) Type() MessageType            { return MsgReady }
func (RollDiceRequest) Type() MessageType         { return MsgRollDice }
func (BuildRequest) Type() MessageType            { return MsgBuild }
func (DiscardRequest) Type() MessageType          { return MsgDiscard }
func (MoveRobberRequest) Type() MessageType       { return MsgMoveRobber }
func (PlayKnightRequest) Type() MessageType       { return MsgPlayKnight }
func (PlayRoadBuildingRequest) Type() MessageType { return MsgPlayRoadBuilding }
func (PlayMonopolyRequest) Type() MessageType     { return MsgPlayMonopoly }
func (PlayYearOfPlentyRequest) Type() MessageType { return MsgPlayYearOfPlenty }
func (OfferTradeRequest) Type() MessageType       { return MsgOfferTrade }
func (RespondTradeRequest) Type() MessageType     { return MsgRespondTrade }
func (ExecuteTradeRequest) Type() MessageType     { return MsgExecuteTrade }
func (AbandonTradeRequest) Type() MessageType     { return MsgAbandonTrade }
func (MaritimeTradeRequest) Type() MessageType    { return MsgMaritimeTrade }
func (BuyDevCardRequest) Type() MessageType       { return MsgBuyDevCard }
func (SendChatRequest) Type() MessageType         { return MsgSendChat }
func (EndTurnRequest) Type() MessageType          { return MsgEndTurn }
func (RequestSnapshotRequest) Type() MessageType  { return MsgRequestSnapshot }
func (PingRequest) Type() MessageType             { return MsgPing }

func newRequest(t MessageType) (Request, error) {
	switch t {
	case MsgJoin:
		return &JoinRequest{}, nil
	case MsgReady:
		return &ReadyRequest{}, nil
	case MsgRollDice:
		return &RollDiceRequest{}, nil
	case MsgBuild:
		return &BuildRequest{}, nil
	case MsgDiscard:
		return &DiscardRequest{}, nil
	case MsgMoveRobber:
		return &MoveRobberRequest{}, nil
	case MsgPlayKnight:
		return &PlayKnightRequest{}, nil
	case MsgPlayRoadBuilding:
		return &PlayRoadBuildingRequest{}, nil
	case MsgPlayMonopoly:
		return &PlayMonopolyRequest{}, nil
	case MsgPlayYearOfPlenty:
		return &PlayYearOfPlentyRequest{}, nil
	case MsgOfferTrade:
		return &OfferTradeRequest{}, nil
	case MsgRespondTrade:
		return &RespondTradeRequest{}, nil
	case MsgExecuteTrade:
		return &ExecuteTradeRequest{}, nil
	case MsgAbandonTrade:
		return &AbandonTradeRequest{}, nil
	case MsgMaritimeTrade:
		return &MaritimeTradeRequest{}, nil
	case MsgBuyDevCard:
		return &BuyDevCardRequest{}, nil
	case MsgSendChat:
		return &SendChatRequest{}, nil
	case MsgEndTurn:
		return &EndTurnRequest{}, nil
	case MsgRequestSnapshot:
		return &RequestSnapshotRequest{}, nil
	case MsgPing:
		return &PingRequest{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// Decode parses one frame into its envelope and typed request.
// The returned Request is always a pointer to one of the payload types.
func Decode(data []byte) (Envelope, Request, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, nil, fmt.Errorf("invalid JSON frame: %w", err)
	}
	req, err := newRequest(env.Type)
	if err != nil {
		return env, nil, err
	}
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, req); err != nil {
			return env, nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
	}
	return env, req, nil
}

// Encode frames a request for sending; clients and tests use it.
func Encode(id uuid.UUID, req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: req.Type(), ID: id, Payload: payload})
}

// Ack answers a request. Error is set when the request was rejected.
type Ack struct {
	Type      string           `json:"type"`
	ID        uuid.UUID        `json:"id,omitempty"`
	Request   MessageType      `json:"request,omitempty"`
	OK        bool             `json:"ok"`
	Error     *game.ErrorInfo  `json:"error,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// NewAck builds the ack for a request outcome.
func NewAck(env Envelope, err error) Ack {
	ack := Ack{Type: "ack", ID: env.ID, Request: env.Type, OK: err == nil, Timestamp: time.Now().UnixMilli()}
	if err == nil {
		return ack
	}
	var re *game.RuleError
	if errors.As(err, &re) {
		ack.Error = &game.ErrorInfo{Kind: re.Kind, Message: re.Message}
	} else {
		ack.Error = &game.ErrorInfo{Kind: game.KindIllegalAction, Message: err.Error()}
	}
	return ack
}
