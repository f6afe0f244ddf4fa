package api

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// withTracing opens a server span per request. Optimize requests carry the
// raw transformation query values so a trace can be matched against the
// cache entry it produced, and the response status is recorded once the
// handler finishes.
func (s *Server) withTracing(next http.Handler) http.Handler {
	if s.tracer == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeLabel(r.URL.Path)
		ctx, span := s.tracer.Start(r.Context(), r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		}
		if route == optimizeRoute {
			q := r.URL.Query()
			attrs = append(attrs, attribute.String("img.src", q.Get("src")))
			if raw := q.Get("w"); raw != "" {
				attrs = append(attrs, attribute.String("img.width", raw))
			}
			if raw := q.Get("q"); raw != "" {
				attrs = append(attrs, attribute.String("img.quality", raw))
			}
			if raw := q.Get("f"); raw != "" {
				attrs = append(attrs, attribute.String("img.format", raw))
			}
		}
		span.SetAttributes(attrs...)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorder.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
		}
	})
}
