package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
)

// frameOverhead covers the JSON envelope around a base64 upload.
const frameOverhead = 64 << 10

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loginPayload struct {
	UserID string `json:"userId"`
}

// uploadPayload carries the workbook bytes base64-encoded.
type uploadPayload struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

type bankPayload struct {
	BankID string `json:"bankId"`
}

type choosePayload struct {
	Question int `json:"question"`
	Option   int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// questionPayload never exposes which option is correct.
type questionPayload struct {
	Index    int                        `json:"index"`
	Total    int                        `json:"total"`
	Topic    string                     `json:"topic,omitempty"`
	Text     string                     `json:"text"`
	Image    string                     `json:"image,omitempty"`
	Options  [domain.OptionCount]string `json:"options"`
	Chosen   int                        `json:"chosen"`
	Answered bool                       `json:"answered"`
	Last     bool                       `json:"last"`
}

type detailPayload struct {
	Question string `json:"question"`
	Chosen   string `json:"chosen"`
	Correct  string `json:"correct"`
	Answered bool   `json:"answered"`
	IsRight  bool   `json:"isCorrect"`
}

type resultsPayload struct {
	Correct    int             `json:"correct"`
	Wrong      int             `json:"wrong"`
	Total      int             `json:"total"`
	Percentage float64         `json:"percentage"`
	Score      string          `json:"score"`
	Perfect    bool            `json:"perfect"`
	Details    []detailPayload `json:"details"`
}

type errorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type skippedPayload struct {
	Count int `json:"count"`
}

type transcriptPayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// wsRenderer queues controller output onto the connection's writer.
type wsRenderer struct {
	send chan<- outboundMessage[any]
}

func (r wsRenderer) emit(typ string, payload any) {
	r.send <- outboundMessage[any]{Type: typ, Payload: payload}
}

func (r wsRenderer) RenderQuestion(view app.QuestionView) {
	r.emit("question", questionPayload{
		Index:    view.Index,
		Total:    view.Total,
		Topic:    view.Question.Topic,
		Text:     view.Question.Text,
		Image:    view.Question.Image,
		Options:  view.Question.Options,
		Chosen:   view.Chosen,
		Answered: view.Answered,
		Last:     view.Last,
	})
}

func (r wsRenderer) RenderResults(report domain.ScoreReport) {
	details := make([]detailPayload, 0, len(report.Details))
	for _, d := range report.Details {
		details = append(details, detailPayload{
			Question: d.QuestionText,
			Chosen:   d.ChosenText,
			Correct:  d.CorrectText,
			Answered: d.Answered,
			IsRight:  d.Correct,
		})
	}
	r.emit("results", resultsPayload{
		Correct:    report.Correct,
		Wrong:      report.Wrong,
		Total:      report.Total,
		Percentage: report.Percentage,
		Score:      app.FormatPercentage(report.Percentage),
		Perfect:    report.Perfect(),
		Details:    details,
	})
}

func (r wsRenderer) RenderFatalError(err error) {
	payload := errorPayload{Message: err.Error()}
	var pf *domain.ParseFailure
	switch {
	case errors.As(err, &pf):
		payload.Kind = string(pf.Kind)
	case errors.Is(err, domain.ErrEmptyQuestionSet):
		payload.Kind = "empty_question_set"
	case errors.Is(err, domain.ErrBankNotFound):
		payload.Kind = "bank_not_found"
	}
	r.emit("fatalError", payload)
}

func (r wsRenderer) RenderSkippedRowWarning(count int) {
	r.emit("skippedRows", skippedPayload{Count: count})
}

func (r wsRenderer) RenderInvalidTransition(err error) {
	r.emit("invalid", errorPayload{Message: err.Error()})
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz controller per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.service.MaxUploadBytes()*4/3 + frameOverhead)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				// Keep draining so the read loop never blocks on a dead peer.
				for range send {
				}
				return
			}
		}
	}()

	renderer := wsRenderer{send: send}
	controller := app.NewController(h.service, renderer)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		controller.OnLogin(userID)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, controller, renderer, inbound)
	}

	controller.Close()
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, c *app.Controller, out wsRenderer, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "login":
		var payload loginPayload
		if !decode(inbound, &payload, out) {
			return
		}
		c.OnLogin(payload.UserID)
	case "upload":
		var payload uploadPayload
		if !decode(inbound, &payload, out) {
			return
		}
		_ = c.OnFileSelected(ctx, payload.Filename, payload.Data)
	case "bank":
		var payload bankPayload
		if !decode(inbound, &payload, out) {
			return
		}
		_ = c.OnBankSelected(ctx, payload.BankID)
	case "choose":
		var payload choosePayload
		if !decode(inbound, &payload, out) {
			return
		}
		_ = c.OnOptionChosen(payload.Question, payload.Option)
	case "advance":
		_ = c.OnAdvanceRequested()
	case "previous":
		_ = c.OnPreviousRequested()
	case "submit":
		_ = c.OnSubmitRequested()
	case "timeExpired":
		_ = c.OnTimeExpired()
	case "export":
		transcript, err := c.OnExportRequested()
		if err != nil {
			return
		}
		out.emit("transcript", transcriptPayload{Filename: transcript.Filename, Content: transcript.Content})
	default:
		out.emit("error", errorPayload{Message: "unsupported message type"})
	}
}

func decode(inbound inboundMessage, into any, out wsRenderer) bool {
	if err := json.Unmarshal(inbound.Payload, into); err != nil {
		out.emit("error", errorPayload{Message: "invalid " + inbound.Type + " payload"})
		return false
	}
	return true
}
