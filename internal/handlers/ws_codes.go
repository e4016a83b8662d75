package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game handler.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // client did not speak the catan subprotocol
	TableClosedError    websocket.StatusCode = 3001 // the session is running or finished and takes no new connections
	SlowConsumerError   websocket.StatusCode = 3002 // the client's outbound queue overflowed
)
