package socket

import (
	socketio "github.com/googollee/go-socket.io"
	"github.com/sirupsen/logrus"
)

// NewSocketServer initializes the Socket.IO server used for match
// notifications. Clients join a room keyed by their user id and receive
// matchFound events when the engine pairs them.
func NewSocketServer(logger *logrus.Logger) *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		logger.WithField("socketId", c.ID()).Info("✅ socket connected")
		return nil
	})

	server.OnEvent("/", "join", func(c socketio.Conn, userID string) {
		if userID == "" {
			logger.Warn("❌ invalid userId in join request")
			return
		}
		c.Join(userRoom(userID))
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		logger.WithFields(logrus.Fields{
			"socketId": c.ID(),
			"reason":   reason,
		}).Info("socket disconnected")
	})

	return server
}

func userRoom(userID string) string {
	return "user:" + userID
}

// Notifier broadcasts match results to the matched user's room
type Notifier struct {
	Server *socketio.Server
}

// MatchFound pushes the session details to a user's connected clients
func (n *Notifier) MatchFound(userID, partnerID, channelName string, isAIMatch bool) {
	n.Server.BroadcastToRoom("/", userRoom(userID), "matchFound", map[string]interface{}{
		"partnerId":   partnerID,
		"channelName": channelName,
		"isAIMatch":   isAIMatch,
	})
}
