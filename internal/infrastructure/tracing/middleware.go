package tracing

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware that wraps each request in a
// span and propagates trace context via X-Trace-ID / X-Span-ID headers
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		headers := map[string]string{
			"X-Trace-ID": c.GetHeader("X-Trace-ID"),
			"X-Span-ID":  c.GetHeader("X-Span-ID"),
		}

		traceID, parentID := ExtractTraceContext(headers)

		ctx := c.Request.Context()
		if traceID != "" {
			ctx = context.WithValue(ctx, traceIDKey, traceID)
		}
		if parentID != "" {
			ctx = context.WithValue(ctx, spanIDKey, parentID)
		}

		name := c.FullPath()
		if name == "" {
			name = c.Request.URL.Path
		}
		span, ctx := tracer.StartSpan(ctx, name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.url", c.Request.URL.String())

		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Trace-ID", string(span.TraceID))
		c.Header("X-Span-ID", string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}
