package web

import (
	"fmt"
	"log"
	"net/http"

	"clbench/pkg/mandel"
	"clbench/pkg/report"

	"github.com/gorilla/websocket"
)

// Command is a view change sent by the browser over the websocket
type Command struct {
	Op     string         `json:"op"` // zoom, pan, reset or set
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Factor float64        `json:"factor"`
	Params *mandel.Params `json:"params,omitempty"`
}

// Frame describes the PNG that follows it as a binary message
type Frame struct {
	Params mandel.Params `json:"params"`
	Device string        `json:"device,omitempty"`
	Time   string        `json:"time,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// apply returns the view after c. For zoom X and Y are the pixel to zoom
// around, for pan the offset in pixels.
func (c Command) apply(view, defaults mandel.Params) (mandel.Params, error) {
	switch c.Op {
	case "zoom":
		if c.Factor <= 0 {
			return view, fmt.Errorf("%w: zoom factor %v", mandel.ErrParams, c.Factor)
		}
		return view.Zoom(c.X, c.Y, c.Factor), nil
	case "pan":
		return view.Pan(c.X, c.Y), nil
	case "reset":
		return defaults, nil
	case "set":
		if c.Params == nil {
			return view, fmt.Errorf("%w: set without params", mandel.ErrParams)
		}
		return *c.Params, checkParams(*c.Params)
	case "":
		return view, nil
	default:
		return view, fmt.Errorf("%w: unknown op %q", mandel.ErrParams, c.Op)
	}
}

// serveWS renders the current view after every command. Each answer is a
// JSON Frame text message, followed by the PNG unless the Frame carries an
// error.
func (s *Server) serveWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("[ws] upgrade failed:", err)
			return
		}
		defer conn.Close()

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-s.valve.Stop():
				conn.Close()
			case <-done:
			}
		}()

		view := s.cfg.Defaults
		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Println("[ws] read:", err)
				}
				return
			}

			next, err := cmd.apply(view, s.cfg.Defaults)
			if err != nil {
				if err := conn.WriteJSON(Frame{Params: view, Error: err.Error()}); err != nil {
					return
				}
				continue
			}

			ok, err := s.sendFrame(conn, r, next)
			if err != nil {
				log.Println("[ws] write:", err)
				return
			}
			if ok {
				view = next
			}
		}
	}
}

// sendFrame reports whether p was rendered. A failed render is sent to the
// client and is not an error of the connection.
func (s *Server) sendFrame(conn *websocket.Conn, r *http.Request, p mandel.Params) (bool, error) {
	img, res, err := s.frame(r, p)
	if err != nil {
		return false, conn.WriteJSON(Frame{Params: p, Error: err.Error()})
	}

	b, err := encodePNG(img)
	if err != nil {
		return false, err
	}

	info := Frame{Params: p, Device: res.Device, Time: report.Millis(res.Wall)}
	if err := conn.WriteJSON(info); err != nil {
		return false, err
	}
	return true, conn.WriteMessage(websocket.BinaryMessage, b)
}
