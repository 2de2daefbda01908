package server

import (
	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/finlife/lifesim/internal/calculation"
	"github.com/finlife/lifesim/internal/config"
	"github.com/finlife/lifesim/internal/domain"
)

// SimulateRequest is the POST /simulate body: one configuration plus the
// trace flag.
type SimulateRequest struct {
	Config *domain.Configuration `json:"config"`
	Trace  bool                  `json:"trace"`
}

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Handler serves the simulation HTTP API.
type Handler struct {
	parser *config.Parser
	log    calculation.Logger
}

func NewHandler(log calculation.Logger) *Handler {
	if log == nil {
		log = calculation.NopLogger{}
	}
	return &Handler{parser: config.NewParser(), log: log}
}

// Route is the fasthttp request handler.
func (h *Handler) Route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/simulate":
		if !ctx.IsPost() {
			h.writeError(ctx, fasthttp.StatusMethodNotAllowed, "POST required")
			return
		}
		h.handleSimulate(ctx)
	case "/healthz":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	default:
		h.writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (h *Handler) handleSimulate(ctx *fasthttp.RequestCtx) {
	var req SimulateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Config == nil {
		h.writeError(ctx, fasthttp.StatusBadRequest, "config is required")
		return
	}
	if req.Config.LumpSumSpreadYears == 0 {
		req.Config.LumpSumSpreadYears = 1
	}
	if err := h.parser.Validate(req.Config); err != nil {
		h.writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	engine := calculation.NewSimulationEngine(h.log)
	result, err := engine.Run(req.Config, req.Trace)
	if err != nil {
		h.writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		h.writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(body)
}

func (h *Handler) writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	h.log.Warnf("request %s %s failed: %d %s", ctx.Method(), ctx.Path(), status, message)
	body, _ := json.Marshal(errorResponse{Status: status, Message: message})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
