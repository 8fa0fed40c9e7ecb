package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

const writeWait = 5 * time.Second

// ChatWSController upgrades chat connections and runs their pumps.
// The connection identity is the gin client-token cookie.
type ChatWSController struct {
	Registry *core.Registry
	Hub      *Hub

	readLimit  int64
	pingPeriod time.Duration
}

func NewChatWSController(reg *core.Registry, hub *Hub, readLimit int64, pingPeriod time.Duration) *ChatWSController {
	return &ChatWSController{
		Registry:   reg,
		Hub:        hub,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	cid := domain.ClientID(c.GetString("client_token"))
	log.Info().Str("module", "ws.controller").Str("cid", string(cid)).Msg("new WS connection")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws.controller").Msg("ws upgrade")
		return
	}

	cc := newChatConn(conn)
	ctl.Hub.Register(cid, cc)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cid, cc)
	go ctl.readPump(ctx, cancel, cid, cc)
}

func (ctl *ChatWSController) writePump(ctx context.Context, cid domain.ClientID, c *wsChatConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws.controller").Str("cid", string(cid)).Msg("writePump ctx done")
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "ws.controller").Str("cid", string(cid)).Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws.controller").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws.controller").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump reads inbound events until the connection drops, then sweeps
// the vanished connection out of every membership list. The sweep must
// run before the hub unregisters, so the remaining members still get
// their totalUsers update.
func (ctl *ChatWSController) readPump(ctx context.Context, cancel context.CancelFunc, cid domain.ClientID, c *wsChatConn) {
	defer func() {
		log.Info().Str("module", "ws.controller").Str("cid", string(cid)).Msg("readPump closing")
		ctl.Registry.DisconnectSweep(cid)
		ctl.Hub.Unregister(cid)
		c.Close()
		cancel()
	}()

	pongWait := ctl.pingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws.controller").Str("cid", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws.controller").Str("cid", string(cid)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(cid, data)
		}
	}
}
