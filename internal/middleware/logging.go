// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogMiddleware logs every request with its method, path, duration, and
// remote address. The ResponseWriter is passed through untouched so the
// websocket upgrade keeps its Hijacker.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("http request")
		})
	}
}

// LogFeedConnect records a player attaching to the event feed.
func LogFeedConnect(logger *logrus.Logger, userID uuid.UUID, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"user":   userID,
		"remote": remoteAddr,
	}).Info("event feed connected")
}

// LogFeedDisconnect records a player leaving the event feed. err is the read
// error that ended the connection, nil for a clean close.
func LogFeedDisconnect(logger *logrus.Logger, userID uuid.UUID, remoteAddr string, err error) {
	fields := logrus.Fields{
		"user":   userID,
		"remote": remoteAddr,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("event feed disconnected")
}
