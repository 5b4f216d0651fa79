package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/logging"
)

// Voice platform request types and intents.
const (
	RequestLaunch       = "LaunchRequest"
	RequestIntent       = "IntentRequest"
	RequestSessionEnded = "SessionEndedRequest"

	IntentBriefing = "GetBriefingIntent"
	IntentHelp     = "AMAZON.HelpIntent"
	IntentStop     = "AMAZON.StopIntent"
	IntentCancel   = "AMAZON.CancelIntent"
)

const (
	helpSpeech  = "You can ask me for your daily briefing, or for the briefing of a specific date."
	byeSpeech   = "Goodbye!"
	errorSpeech = "Sorry, I had trouble doing what you asked. Please try again."
)

// VoiceRequest is the subset of the voice platform envelope the router reads.
type VoiceRequest struct {
	Request struct {
		Type   string `json:"type"`
		Intent struct {
			Name  string `json:"name"`
			Slots map[string]struct {
				Value string `json:"value"`
			} `json:"slots"`
		} `json:"intent"`
	} `json:"request"`
}

// NewVoiceRequest builds a request envelope, mostly for callers without a
// platform SDK.
func NewVoiceRequest(requestType, intent string) VoiceRequest {
	var req VoiceRequest
	req.Request.Type = requestType
	req.Request.Intent.Name = intent
	return req
}

// Slot returns a slot value or "".
func (r VoiceRequest) Slot(name string) string {
	return strings.TrimSpace(r.Request.Intent.Slots[name].Value)
}

// VoiceResponse is what the platform reads back to the user.
type VoiceResponse struct {
	Speech     string `json:"speech"`
	Reprompt   string `json:"reprompt,omitempty"`
	EndSession bool   `json:"end_session"`
}

// Predicate selects requests for a handler.
type Predicate func(VoiceRequest) bool

// Handler answers a request.
type Handler func(ctx context.Context, req VoiceRequest) (VoiceResponse, error)

// Route pairs a predicate with its handler.
type Route struct {
	Name   string
	Match  Predicate
	Handle Handler
}

// Router dispatches to the first matching route. The fallback answers
// unmatched requests and handler errors.
type Router struct {
	routes   []Route
	fallback Handler
	logger   *slog.Logger
}

// NewRouter builds a router over routes in priority order.
func NewRouter(routes []Route, fallback Handler, log *slog.Logger) *Router {
	if fallback == nil {
		fallback = errorHandler
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Router{routes: routes, fallback: fallback, logger: log}
}

// Dispatch never fails; errors are answered by the fallback handler.
func (r *Router) Dispatch(ctx context.Context, req VoiceRequest) VoiceResponse {
	for _, route := range r.routes {
		if !route.Match(req) {
			continue
		}
		resp, err := route.Handle(ctx, req)
		if err == nil {
			return resp
		}
		r.logger.Warn("voice handler failed", "route", route.Name, "error", err)
		break
	}
	resp, err := r.fallback(ctx, req)
	if err != nil {
		return VoiceResponse{Speech: errorSpeech, EndSession: true}
	}
	return resp
}

// Retriever is the read side the voice skill needs.
type Retriever interface {
	Retrieve(ctx context.Context, dateKey string) domain.BriefingDocument
}

// NewVoiceRouter wires the standard skill: launch, briefing intent, help,
// stop or cancel, session ended.
func NewVoiceRouter(retriever Retriever, voice *VoiceRenderer, log *slog.Logger) *Router {
	briefing := func(ctx context.Context, req VoiceRequest) (VoiceResponse, error) {
		doc := retriever.Retrieve(ctx, req.Slot("date"))
		speech := voice.Render(doc)
		return VoiceResponse{Speech: speech.Text, Reprompt: speech.Reprompt}, nil
	}

	routes := []Route{
		{Name: "launch", Match: isType(RequestLaunch), Handle: briefing},
		{Name: "briefing", Match: isIntent(IntentBriefing), Handle: briefing},
		{Name: "help", Match: isIntent(IntentHelp), Handle: func(context.Context, VoiceRequest) (VoiceResponse, error) {
			return VoiceResponse{Speech: helpSpeech, Reprompt: helpSpeech}, nil
		}},
		{Name: "stop", Match: isIntent(IntentStop, IntentCancel), Handle: func(context.Context, VoiceRequest) (VoiceResponse, error) {
			return VoiceResponse{Speech: byeSpeech, EndSession: true}, nil
		}},
		{Name: "session-ended", Match: isType(RequestSessionEnded), Handle: func(context.Context, VoiceRequest) (VoiceResponse, error) {
			return VoiceResponse{EndSession: true}, nil
		}},
	}
	return NewRouter(routes, errorHandler, log)
}

func isType(t string) Predicate {
	return func(req VoiceRequest) bool { return req.Request.Type == t }
}

func isIntent(names ...string) Predicate {
	return func(req VoiceRequest) bool {
		if req.Request.Type != RequestIntent {
			return false
		}
		for _, n := range names {
			if req.Request.Intent.Name == n {
				return true
			}
		}
		return false
	}
}

func errorHandler(context.Context, VoiceRequest) (VoiceResponse, error) {
	return VoiceResponse{Speech: errorSpeech, Reprompt: errorSpeech}, nil
}
