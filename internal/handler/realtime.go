package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/middleware"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// RealtimeHandler streams changes and notifications over a WebSocket.
type RealtimeHandler struct {
	Hub       *realtime.Hub
	Requests  *repository.ServiceRequestRepo
	Mechanics *repository.MechanicRepo
	Log       logger.ILogger
}

// clientMsg is what a client may send: {"action":"subscribe",...}.
type clientMsg struct {
	Action string             `json:"action"`
	Table  string             `json:"table"`
	Filter string             `json:"filter"`
	Event  realtime.EventType `json:"event"`
}

type frame struct {
	Type    string           `json:"type"`
	Change  *realtime.Change `json:"change,omitempty"`
	Message string           `json:"message,omitempty"`
	Filter  string           `json:"filter,omitempty"`
}

// defaultFilters are attached on connect: the caller's own requests, new
// mechanics, and replies in the caller's conversations.  Mechanics also
// follow requests assigned to them.
func defaultFilters(a repository.Actor) []realtime.Filter {
	uid := strconv.FormatUint(a.UserID, 10)
	fs := []realtime.Filter{
		realtime.MustFilter(realtime.TableServiceRequests, realtime.EventAll, "user_id=eq."+uid),
		realtime.MustFilter(realtime.TableMechanicProfiles, realtime.EventInsert, ""),
		realtime.MustFilter(realtime.TableMessages, realtime.EventInsert, "user_id=eq."+uid),
	}
	if a.MechanicID != 0 {
		fs = append(fs, realtime.MustFilter(realtime.TableServiceRequests, realtime.EventAll,
			"mechanic_id=eq."+strconv.FormatUint(a.MechanicID, 10)))
	}
	return fs
}

// authorize decides whether a may add f.  Rows keyed by the caller's
// user_id and the public mechanic directory are always allowed; a single
// service request by id only when the caller is its driver or assigned
// mechanic.
func (h *RealtimeHandler) authorize(ctx context.Context, a repository.Actor, f realtime.Filter) error {
	if f.Table == realtime.TableMechanicProfiles {
		return nil
	}
	if f.Column == "user_id" && f.Value == strconv.FormatUint(a.UserID, 10) {
		return nil
	}
	if f.Table == realtime.TableServiceRequests && f.Column == "id" {
		id, err := strconv.ParseUint(f.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id")
		}
		sr, err := h.Requests.GetByID(ctx, id)
		if err != nil || !repository.Owns(a, sr) {
			return fmt.Errorf("not allowed")
		}
		return nil
	}
	return fmt.Errorf("not allowed")
}

// visible re-checks ownership of a service request change at delivery
// time, since the assigned mechanic can change after a filter is added.
// A party that appears on either side of the change still sees it.
func visible(a repository.Actor, c realtime.Change) bool {
	if c.Table != realtime.TableServiceRequests {
		return true
	}
	return ownsRow(a, c.New) || ownsRow(a, c.Old)
}

func ownsRow(a repository.Actor, r realtime.Row) bool {
	if r == nil {
		return false
	}
	if uid, err := cast.ToUint64E(r["user_id"]); err == nil && uid == a.UserID {
		return true
	}
	if a.MechanicID == 0 || r["mechanic_id"] == nil {
		return false
	}
	mid, err := cast.ToUint64E(r["mechanic_id"])
	return err == nil && mid == a.MechanicID
}

func (h *RealtimeHandler) actor(ctx context.Context, uid uint64, role string) repository.Actor {
	a := repository.Actor{UserID: uid}
	if role != model.RoleMechanic || h.Mechanics == nil {
		return a
	}
	if m, err := h.Mechanics.GetByUser(ctx, uid); err == nil {
		a.MechanicID = m.ID
	}
	return a
}

// Serve handles GET /v1/realtime.
func (h *RealtimeHandler) Serve(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	a := h.actor(ctx, uid, middleware.Role(c))
	cancel()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Log.Warning("websocket upgrade failed", logger.Error(err))
		return nil
	}
	defer conn.Close()

	sub := h.Hub.Subscribe(defaultFilters(a)...)
	defer sub.Close()
	log := h.Log.With(logger.Uint64("user_id", uid))
	log.Debug("realtime connected", logger.Int("subscribers", h.Hub.Len()))

	replies := make(chan frame, 8)
	done := make(chan struct{})
	go h.readLoop(conn, a, sub, replies, done, log)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return nil
		case f := <-replies:
			if err := writeFrame(conn, f); err != nil {
				return nil
			}
		case ch, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return nil
			}
			if !visible(a, ch) {
				continue
			}
			if err := writeFrame(conn, frame{Type: "change", Change: &ch}); err != nil {
				return nil
			}
			if text, ok := realtime.Notification(ch); ok {
				if err := writeFrame(conn, frame{Type: "notification", Message: text}); err != nil {
					return nil
				}
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}

// readLoop handles client actions until the connection fails.  Replies go
// through the writer; gorilla connections allow one writer at a time.
func (h *RealtimeHandler) readLoop(conn *websocket.Conn, a repository.Actor, sub *realtime.Subscription,
	replies chan<- frame, done chan<- struct{}, log logger.ILogger) {
	defer close(done)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("realtime read failed", logger.Error(err))
			}
			return
		}
		reply := h.handleAction(a, sub, msg)
		select {
		case replies <- reply:
		default:
			log.Warning("realtime reply dropped", logger.String("action", msg.Action))
		}
	}
}

func (h *RealtimeHandler) handleAction(a repository.Actor, sub *realtime.Subscription, msg clientMsg) frame {
	if msg.Action != "subscribe" {
		return frame{Type: "error", Message: "unknown action"}
	}
	f, err := realtime.ParseFilter(msg.Table, msg.Event, msg.Filter)
	if err != nil {
		return frame{Type: "error", Message: err.Error()}
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := h.authorize(ctx, a, f); err != nil {
		return frame{Type: "error", Message: err.Error(), Filter: f.String()}
	}
	sub.Add(f)
	return frame{Type: "subscribed", Filter: f.String()}
}

func writeFrame(conn *websocket.Conn, f frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(f)
}
