package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"aipedia/internal/article"
)

const streamWriteWait = 10 * time.Second

var (
	errStopped    = errors.New("stopped by client")
	errClientGone = errors.New("client went away")
)

// streamMessage is a server to client frame of the streaming view.
type streamMessage struct {
	Event   string `json:"event"`
	HTML    string `json:"html,omitempty"`
	Message string `json:"message,omitempty"`
}

// clientMessage is a client to server frame. Only "stop" is understood.
type clientMessage struct {
	Event string `json:"event"`
}

// handleStream feeds the partial article for a topic over a websocket. Every
// chunk is merged into the view state in arrival order and the whole state is
// re-rendered; hyperlinks are added once the article is complete.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	topic, err := TopicFromPath(strings.TrimPrefix(r.URL.EscapedPath(), "/ws/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade %q: %v", topic, err)
		return
	}
	defer conn.Close()

	var finished atomic.Bool
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if finished.Load() {
					return nil
				}
				return errClientGone
			}
			if msg.Event == "stop" {
				return errStopped
			}
		}
	})

	g.Go(func() error {
		defer func() {
			finished.Store(true)
			deadline := time.Now().Add(streamWriteWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = conn.Close()
		}()

		err := s.streamArticle(ctx, conn, topic)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Printf("stream %q (request %s): %v", topic, RequestID(ctx), err)
			_ = writeStream(conn, streamMessage{
				Event:   "error",
				Message: "The article could not be generated. Please try again later.",
			})
		}
		return nil
	})

	switch err := g.Wait(); {
	case errors.Is(err, errStopped):
		log.Printf("stream %q: stopped by client", topic)
	case errors.Is(err, errClientGone):
		log.Printf("stream %q: client went away", topic)
	}
}

// streamArticle runs the generator and writes one update per chunk, then the
// linked final state and a done frame.
func (s *Server) streamArticle(ctx context.Context, conn *websocket.Conn, topic string) error {
	state := article.Empty()
	err := s.generator.Stream(ctx, topic, func(chunk article.Partial) error {
		state = article.Merge(state, chunk)
		html, err := s.renderer.Fragment(state, false)
		if err != nil {
			return err
		}
		return writeStream(conn, streamMessage{Event: "update", HTML: html})
	})
	if err != nil {
		return err
	}

	html, err := s.renderer.Fragment(state, true)
	if err != nil {
		return err
	}
	if err := writeStream(conn, streamMessage{Event: "update", HTML: html}); err != nil {
		return err
	}
	return writeStream(conn, streamMessage{Event: "done"})
}

func writeStream(conn *websocket.Conn, msg streamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
