package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Handler upgrades the connection and streams events. The optional "events"
// query parameter narrows the subscription.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		client := &Client{
			hub:   hub,
			conn:  c,
			types: ParseEventTypes(c.Query("events")),
			send:  make(chan []byte, 256),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
