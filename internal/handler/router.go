package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nwehrle/memoloom/internal/gateway/slackapi"
	"github.com/nwehrle/memoloom/internal/handler/slackevents"
	middlewarePkg "github.com/nwehrle/memoloom/internal/middleware"
	"github.com/nwehrle/memoloom/pkg/utils"
)

// NewRouter wires the Slack HTTP endpoints to the core event sink. All
// /slack routes sit behind request-signature verification.
func NewRouter(sink slackapi.EventSink, signingSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	eventsHandler := slackevents.New(sink)
	r.Route("/slack", func(slack chi.Router) {
		slack.Use(middlewarePkg.VerifySlackSignature(signingSecret))
		eventsHandler.RegisterRoutes(slack)
	})

	return r
}
