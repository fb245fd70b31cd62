package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/engine"
	"github.com/VictoriaMetrics/metrics"
	"github.com/julienschmidt/httprouter"
)

// serverMetrics holds the counters of a single server
// Every server gets its own set, so several servers in one process do not share counters
type serverMetrics struct {
	set *metrics.Set

	requestsOK   *metrics.Counter
	requestsFail *metrics.Counter
	duration     *metrics.Histogram
	commands     [common.MsgWrite64 + 1]*metrics.Counter
}

func newServerMetrics() *serverMetrics {
	set := metrics.NewSet()
	m := &serverMetrics{
		set:          set,
		requestsOK:   set.NewCounter(`vmipc_requests_total{status="ok"}`),
		requestsFail: set.NewCounter(`vmipc_requests_total{status="fail"}`),
		duration:     set.NewHistogram("vmipc_request_duration_seconds"),
	}
	for op := range m.commands {
		m.commands[op] = set.NewCounter(fmt.Sprintf(`vmipc_commands_total{op=%q}`, common.Opcode(op).String()))
	}
	return m
}

// observe records a handled request
// Commands are only counted for successful requests, those were validated by the engine
func (m *serverMetrics) observe(req []byte, err error, start time.Time) {
	m.duration.UpdateDuration(start)

	if err != nil {
		m.requestsFail.Inc()
		m.set.GetOrCreateCounter(fmt.Sprintf(`vmipc_request_failures_total{reason=%q}`, failureReason(err))).Inc()
		return
	}

	m.requestsOK.Inc()
	forEachCommand(req, func(op common.Opcode) {
		m.commands[op].Inc()
	})
}

// handler returns the http handler serving GET /metrics
func (m *serverMetrics) handler() http.Handler {
	router := httprouter.New()
	router.GET("/metrics", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.set.WritePrometheus(w)
		metrics.WriteProcessMetrics(w)
	})
	return router
}

// failureReason maps an engine error to a metric label
func failureReason(err error) string {
	switch {
	case errors.Is(err, engine.ErrNoSession):
		return "no_session"
	case errors.Is(err, engine.ErrEmptyRequest):
		return "empty_request"
	case errors.Is(err, engine.ErrUnknownOpcode):
		return "unknown_opcode"
	case errors.Is(err, engine.ErrRequestOverflow):
		return "request_overflow"
	case errors.Is(err, engine.ErrResponseOverflow):
		return "response_overflow"
	default:
		return "other"
	}
}

// forEachCommand calls fn with the opcode of every command of an executed request
func forEachCommand(req []byte, fn func(op common.Opcode)) {
	if len(req) == 0 {
		return
	}

	count, pos := 1, 0
	if common.Opcode(req[0]) == common.MsgMultiCommand {
		if len(req) < common.BatchHeaderSize {
			return
		}
		count = int(binary.LittleEndian.Uint16(req[1:common.BatchHeaderSize]))
		pos = common.BatchHeaderSize
	}

	for i := 0; i < count && pos < len(req); i++ {
		op := common.Opcode(req[pos])
		info, ok := op.Info()
		if !ok {
			return
		}
		fn(op)
		pos += info.RequestLen
	}
}
