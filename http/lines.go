package http

import (
	"encoding/binary"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wydy/robot36/station"
)

const (
	frameLine = 1

	writeWait   = 5 * time.Second
	eventBuffer = 256
)

// lineFrame packs a scan line as [type][line u32][width u32][r g b]...
// with big-endian integers.
func lineFrame(ev station.Event) []byte {
	buf := make([]byte, 9+3*len(ev.Pixels))
	buf[0] = frameLine
	binary.BigEndian.PutUint32(buf[1:], uint32(ev.Line))
	binary.BigEndian.PutUint32(buf[5:], uint32(ev.Width))
	for i, argb := range ev.Pixels {
		buf[9+3*i] = uint8(argb >> 16)
		buf[9+3*i+1] = uint8(argb >> 8)
		buf[9+3*i+2] = uint8(argb)
	}
	return buf
}

type eventMessage struct {
	Type  string `json:"type"`
	Mode  string `json:"mode"`
	Code  int    `json:"code,omitempty"`
	Image string `json:"image,omitempty"`
}

func eventJSON(ev station.Event) eventMessage {
	msg := eventMessage{Type: ev.Type.String(), Mode: ev.Mode, Code: ev.Code}
	if ev.Image != nil {
		msg.Image = "/images/" + ev.Image.Name()
	}
	return msg
}

// handleLines streams scan lines as binary frames and headers and
// finished pictures as JSON text frames.
func (h *httpHandler) handleLines(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()
	events, unsubscribe := h.st.Subscribe(eventBuffer)
	defer unsubscribe()

	// Reads only serve to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("line stream opened", "remote", r.RemoteAddr)
	defer h.logger.Debug("line stream closed", "remote", r.RemoteAddr)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if ev.Type == station.EventLine {
				err = conn.WriteMessage(websocket.BinaryMessage, lineFrame(ev))
			} else {
				err = conn.WriteJSON(eventJSON(ev))
			}
			if err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
