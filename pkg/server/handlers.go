package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/gorilla/websocket"

	"github.com/qnkhuat/castedit/internal/cfg"
	"github.com/qnkhuat/castedit/pkg/cast"
	"github.com/qnkhuat/castedit/pkg/editor"
	"github.com/qnkhuat/castedit/pkg/journal"
	"github.com/qnkhuat/castedit/pkg/message"
	"github.com/qnkhuat/castedit/pkg/playback"
)

// upgrade an http request to websocket
var httpUpgrader = websocket.Upgrader{
	ReadBufferSize:  cfg.SERVER_READ_BUFFER_SIZE,
	WriteBufferSize: cfg.SERVER_WRITE_BUFFER_SIZE,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.RegisterConverter(editor.Kind(""), func(s string) reflect.Value {
		return reflect.ValueOf(editor.Kind(s))
	})
	return d
}

const castContentType = "application/x-asciicast"

/*** Health check API ***/
func handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "I'm fine: %s\n", time.Now().String())
}

/*** Edit API ***/
// Body: the recording to edit
// Queries:
// - ops.N.start, ops.N.end - int : line range of the N-th operation
// - ops.N.kind - string          : set, offset, linear or timelapse
// - ops.N.value - float          : operation parameter
// - save - bool                  : keep the result in the journal
// - name - string                : label stored with the journal entry
type EditQuery struct {
	Ops  []editor.Operation `schema:"ops"`
	Save bool               `schema:"save"`
	Name string             `schema:"name"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var q EditQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		log.Printf("Failed to decode query: %s", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := checkOpKeys(r.URL.Query(), len(q.Ops)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.SERVER_MAX_BODY_SIZE))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Recording too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := cast.Load(bytes.NewReader(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	before := rec.Duration()

	if err := editor.Apply(rec, q.Ops); err != nil {
		log.Printf("Failed to edit recording: %s", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := rec.Bytes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if q.Save {
		entry := journal.NewEntry(q.Name, q.Name, body, out, q.Ops)
		entry.Events = rec.Len()
		entry.DurationBefore = before
		entry.DurationAfter = rec.Duration()
		id, err := s.db.AddEdit(entry, out)
		if err != nil {
			log.Printf("Failed to save edit: %s", err)
			http.Error(w, "Failed to save edit", http.StatusInternalServerError)
			return
		}
		log.Printf("Saved edit %d (%s), %d operations", id, entry.RunID, len(q.Ops))
		w.Header().Set("X-Edit-Id", strconv.FormatUint(id, 10))
	}

	w.Header().Set("Content-Type", castContentType)
	w.Write(out)
}

var opKeys = []string{"start", "end", "kind", "value"}

// checkOpKeys makes sure every decoded operation had all of its fields in the
// query. The decoder leaves missing fields of slice elements at zero.
func checkOpKeys(query url.Values, n int) error {
	for i := 0; i < n; i++ {
		for _, key := range opKeys {
			name := fmt.Sprintf("ops.%d.%s", i, key)
			if query.Get(name) == "" {
				return fmt.Errorf("missing query parameter %s", name)
			}
		}
	}
	return nil
}

/*** List edits API ***/
// Queries:
// - n - int    : Number of edits to get. Set to 0 to get all
// - skip - int : Number of edits to skip. Used for paging
type ListEditsQuery struct {
	N    int `schema:"n"`
	Skip int `schema:"skip"`
}

func (s *Server) handleListEdits(w http.ResponseWriter, r *http.Request) {
	var q ListEditsQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if q.N < 0 || q.Skip < 0 {
		http.Error(w, "n and skip must not be negative", http.StatusBadRequest)
		return
	}

	entries, err := s.db.GetEdits(q.Skip, q.N)
	if err != nil {
		log.Printf("Failed to list edits: %s", err)
		http.Error(w, "Failed to list edits", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleGetEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := editID(w, r)
	if !ok {
		return
	}
	entry, err := s.db.GetEdit(id)
	if err != nil {
		dbError(w, err)
		return
	}
	writeJSON(w, entry)
}

func (s *Server) handleGetCast(w http.ResponseWriter, r *http.Request) {
	id, ok := editID(w, r)
	if !ok {
		return
	}
	data, err := s.db.GetRecording(id)
	if err != nil {
		dbError(w, err)
		return
	}
	w.Header().Set("Content-Type", castContentType)
	w.Write(data)
}

/*** Replay a saved edit over websocket ***/
// Queries:
// - speed - float : playback speed factor
// - idle - float  : cap on pauses between events, in seconds
type ReplayQuery struct {
	Speed float64 `schema:"speed"`
	Idle  float64 `schema:"idle"`
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	id, ok := editID(w, r)
	if !ok {
		return
	}
	var q ReplayQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.db.GetRecording(id)
	if err != nil {
		dbError(w, err)
		return
	}
	rec, err := cast.Load(bytes.NewReader(data))
	if err != nil {
		log.Printf("Stored recording %d is corrupted: %s", id, err)
		http.Error(w, "Stored recording is corrupted", http.StatusInternalServerError)
		return
	}

	conn, err := httpUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade to websocket: %s", err)
		return
	}
	defer conn.Close()

	// a viewer closing the connection stops the replay
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("Replaying edit %d to %s", id, r.RemoteAddr)
	p := playback.New(rec, playback.WithSpeed(q.Speed), playback.WithIdleLimit(q.Idle))
	if err := p.Play(ctx, conn); err != nil {
		log.Printf("Replay of edit %d stopped: %s", id, err)
		conn.WriteJSON(message.Wrapper{Type: message.TError, Data: []byte(err.Error())})
	}
	graceClose(conn, ctx.Done())
}

func editID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid edit id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func dbError(w http.ResponseWriter, err error) {
	if errors.Is(err, journal.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	log.Printf("Journal error: %s", err)
	http.Error(w, "Journal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %s", err)
	}
}

// graceClose sends a close frame and waits for the viewer to answer it,
// at most SERVER_CLOSE_GRACE_PERIOD.
func graceClose(conn *websocket.Conn, closed <-chan struct{}) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	select {
	case <-closed:
	case <-time.After(cfg.SERVER_CLOSE_GRACE_PERIOD):
	}
}
