/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/internal/constants"
	"github.com/stratastor/zstate/pkg/errors"
)

// Paths hit by probes and scrapers are served but not logged.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// LoggerMiddleware tags every request with an id, echoed in the response,
// and logs it once it has been served.
func LoggerMiddleware(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(constants.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(constants.RequestIDHeader, requestID)
		c.Set("request_id", requestID)

		c.Next()

		path := c.Request.URL.Path
		if quietPaths[path] {
			return
		}

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.Int("status", status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Int("bytes_out", c.Writer.Size()),
			slog.String("ip", c.ClientIP()),
		}
		for _, err := range c.Errors {
			attrs = append(attrs, errorAttrs(err.Err)...)
		}

		switch {
		case status >= 500:
			l.Error("request failed", logAttrs(attrs)...)
		case status >= 400:
			l.Warn("request rejected", logAttrs(attrs)...)
		default:
			l.Info("request", logAttrs(attrs)...)
		}
	}
}

// errorAttrs flattens a ZError, metadata included, into log fields.
func errorAttrs(err error) []slog.Attr {
	var ze *errors.ZError
	if !errors.As(err, &ze) {
		return []slog.Attr{slog.String("error", err.Error())}
	}
	attrs := []slog.Attr{
		slog.Int("error_code", int(ze.Code)),
		slog.String("error_domain", string(ze.Domain)),
		slog.String("error_kind", string(ze.Kind)),
		slog.String("error_details", ze.Details),
	}
	for k, v := range ze.Metadata {
		attrs = append(attrs, slog.String("error_metadata_"+k, v))
	}
	return attrs
}

func logAttrs(attrs []slog.Attr) []any {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	return args
}
