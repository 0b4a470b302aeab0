package wstest

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// Reply answers every data frame with a text frame carrying reply
func Reply(reply string) HandlerFunc {
	return func(c *Conn) {
		for {
			if _, err := c.Read(); err != nil {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	}
}

// Push writes frames in order, then a normal close frame, then drains until the client closes
func Push(frames ...Frame) HandlerFunc {
	return func(c *Conn) {
		for _, f := range frames {
			if err := c.WriteMessage(f.Type, f.Data); err != nil {
				return
			}
		}

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		if err := c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			return
		}
		c.Drain()
	}
}

// Hold keeps the connection open and records every frame
func Hold() HandlerFunc {
	return func(c *Conn) {
		c.Drain()
	}
}

// Drop reads the first frame and then tears down the TCP connection without a close frame
func Drop() HandlerFunc {
	return func(c *Conn) {
		_, _ = c.Read()
		_ = c.UnderlyingConn().Close()
	}
}

// RandomU64 pushes a random unsigned 64 bit integer in decimal as a binary
// frame every interval while recording whatever the client sends
func RandomU64(interval time.Duration) HandlerFunc {
	return func(c *Conn) {
		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			c.Drain()
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-readerDone:
				return
			case <-ticker.C:
				payload := strconv.FormatUint(rand.Uint64(), 10)
				if err := c.WriteMessage(websocket.BinaryMessage, []byte(payload)); err != nil {
					<-readerDone
					return
				}
			}
		}
	}
}

// Text builds a text frame
func Text(s string) Frame {
	return Frame{Type: websocket.TextMessage, Data: []byte(s)}
}

// Binary builds a binary frame
func Binary(b []byte) Frame {
	return Frame{Type: websocket.BinaryMessage, Data: b}
}
