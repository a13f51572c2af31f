package api

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const traceparentHeader = "traceparent"

// Tracing puts a span context on every request so handler logs carry trace
// ids. An incoming W3C traceparent keeps its trace id; otherwise a new trace
// is started. The span id is always new and echoed in the response.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    incomingTraceID(r.Header.Get(traceparentHeader)),
			SpanID:     newSpanID(),
			TraceFlags: trace.FlagsSampled,
			Remote:     false,
		})

		w.Header().Set(traceparentHeader, formatTraceparent(sc))
		next.ServeHTTP(w, r.WithContext(trace.ContextWithSpanContext(r.Context(), sc)))
	})
}

// incomingTraceID parses version-traceid-spanid-flags and falls back to a
// random id when the header is absent or malformed.
func incomingTraceID(header string) trace.TraceID {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) == 4 && len(parts[1]) == 32 {
		if id, err := trace.TraceIDFromHex(parts[1]); err == nil {
			return id
		}
	}

	var id trace.TraceID
	_, _ = rand.Read(id[:])
	return id
}

func newSpanID() trace.SpanID {
	var id trace.SpanID
	_, _ = rand.Read(id[:])
	return id
}

func formatTraceparent(sc trace.SpanContext) string {
	return fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), sc.TraceFlags())
}
