package annotation

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// serveWebSocket answers every event read from the socket with the state
// it produced. The current state is sent first.
func (a *EditorApp) serveWebSocket(w http.ResponseWriter, r *http.Request, s *Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: while upgrading session %s: %s", s.ID, err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxEventBytes)

	if err := conn.WriteJSON(s.State()); err != nil {
		return
	}
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: session %s: %s", s.ID, err)
			}
			return
		}
		state, err := s.Apply(r.Context(), ev)
		if err != nil {
			state.Error = userMessage(r, err)
		}
		if err := conn.WriteJSON(state); err != nil {
			log.Printf("ws: session %s: while writing state: %s", s.ID, err)
			return
		}
	}
}
