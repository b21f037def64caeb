package handlers

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"querydesk/chat"
	"querydesk/db"
	"querydesk/models"
	"querydesk/notify"
	"querydesk/service"

	"github.com/gin-gonic/gin"
)

// @title           QueryDesk API
// @version         1.0
// @description     Chat-style query box over a records database: submit free-text queries, get formatted answers appended to a per-user transcript.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:9090
// @BasePath  /

// @schemes   http https

const defaultUserID = "admin"

// historyStore is where sessions persist their chat entries.
type historyStore interface {
	GetChatEntries(userID string) ([]models.ChatEntry, error)
	StoreChatEntries(userID string, entries ...models.ChatEntry) error
	ClearChatEntries(userID string) error
}

type Handlers struct {
	db          *db.DB
	history     historyStore
	service     chat.QueryService
	sqlService  *service.SQLServerService
	results     *service.ResultsStorage
	sqlFilesDir string

	sessions  *chat.Registry
	events    *notify.Hub[string] // pings carrying the user ID whose state changed
	recorders sync.Map // user ID -> *notify.Recorder
}

type Options struct {
	DB          *db.DB
	Service     chat.QueryService
	SQLService  *service.SQLServerService
	Results     *service.ResultsStorage
	SQLFilesDir string
}

func New(opts Options) *Handlers {
	h := &Handlers{
		db:          opts.DB,
		service:     opts.Service,
		sqlService:  opts.SQLService,
		results:     opts.Results,
		sqlFilesDir: opts.SQLFilesDir,
		events:      notify.NewHub[string](),
	}
	if opts.DB != nil {
		h.history = opts.DB
	}
	h.sessions = chat.NewRegistry(h.newSession)
	return h
}

// Register mounts every API route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.HealthHandler)

	api := r.Group("/api")
	api.PUT("/query/input", h.InputHandler)
	api.POST("/query/submit", h.SubmitHandler)
	api.POST("/query/process", h.ProcessHandler)

	api.GET("/chat/state", h.StateHandler)
	api.GET("/chat/history", h.HistoryHandler)
	api.DELETE("/chat/history", h.ClearHistoryHandler)
	api.GET("/chat/events", h.EventsHandler)

	api.POST("/sql/upload", h.UploadSQLFileHandler)
	api.GET("/sql/files", h.ListSQLFilesHandler)
	api.POST("/sql/execute", h.ExecuteSQLHandler)

	api.GET("/results/files", h.ListResultFilesHandler)
	api.GET("/results/file/:filename", h.GetResultFileHandler)
}

// newSession builds a user's controller: toasts go to the log and to a
// per-user buffer, history is restored from and persisted to the store, and
// every change is broadcast to event subscribers. A history that cannot be
// loaded refuses the session rather than risk overwriting stored entries.
func (h *Handlers) newSession(userID string) (*chat.Controller, error) {
	var restored []models.ChatEntry
	if h.history != nil {
		entries, err := h.history.GetChatEntries(userID)
		if err != nil {
			log.Printf("[SESSION] Error loading chat history for %s: %v", userID, err)
			return nil, fmt.Errorf("failed to load chat history: %w", err)
		}
		restored = entries
	}

	recorder := notify.NewRecorder()
	h.recorders.Store(userID, recorder)

	sink := notify.Multi{notify.LogSink{Prefix: "[TOAST] " + userID + " "}, recorder}
	return chat.NewController(h.service, sink,
		chat.WithHistory(restored),
		chat.WithObserver(h.persister(userID, len(restored))),
		chat.WithObserver(func(chat.Snapshot) { h.events.Broadcast(userID) }),
	), nil
}

// persister mirrors the in-memory history into the store. Observers may run
// out of order, so snapshots older than the last one applied are ignored.
func (h *Handlers) persister(userID string, persisted int) chat.Observer {
	var (
		mu      sync.Mutex
		applied uint64
	)
	return func(s chat.Snapshot) {
		if h.history == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		if s.Version <= applied {
			return
		}
		applied = s.Version

		entries := s.History.Entries()
		switch {
		case len(entries) < persisted:
			if err := h.history.ClearChatEntries(userID); err != nil {
				log.Printf("[SESSION] Error clearing chat history for %s: %v", userID, err)
				return
			}
			if err := h.history.StoreChatEntries(userID, entries...); err != nil {
				log.Printf("[SESSION] Error storing chat history for %s: %v", userID, err)
				return
			}
		case len(entries) > persisted:
			if err := h.history.StoreChatEntries(userID, entries[persisted:]...); err != nil {
				log.Printf("[SESSION] Error storing chat history for %s: %v", userID, err)
				return
			}
		}
		persisted = len(entries)
	}
}

func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}

// session resolves the caller's controller, writing a 500 on failure.
func (h *Handlers) session(c *gin.Context) (*chat.Controller, string, bool) {
	id := userID(c)
	ctrl, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, id, false
	}
	return ctrl, id, true
}

func (h *Handlers) drainToasts(userID string) []models.Notification {
	if r, ok := h.recorders.Load(userID); ok {
		return r.(*notify.Recorder).Drain()
	}
	return nil
}

func stateResponse(s chat.Snapshot) models.StateResponse {
	return models.StateResponse{State: s.State, History: s.History.Entries()}
}
