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

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/common"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

const maxDocumentSize = 1 << 20

// kindStatus overrides the code's status for failures classified from
// tool output.
var kindStatus = map[errors.Kind]int{
	errors.KindNotFound:          http.StatusNotFound,
	errors.KindBusy:              http.StatusConflict,
	errors.KindInvalidArgument:   http.StatusBadRequest,
	errors.KindPermissionOrState: http.StatusConflict,
	errors.KindToolUnavailable:   http.StatusServiceUnavailable,
}

// StatusOf picks the HTTP status for err.
func StatusOf(err error) int {
	var ze *errors.ZError
	if !errors.As(err, &ze) {
		return http.StatusInternalServerError
	}
	if s, ok := kindStatus[ze.Kind]; ok {
		return s
	}
	if ze.HTTPStatus != 0 {
		return ze.HTTPStatus
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders the last error attached to the context.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := StatusOf(err)

		var ze *errors.ZError
		if errors.As(err, &ze) {
			c.JSON(status, ze)
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

// APIError attaches err and stops the chain.
func APIError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ValidatePoolName validates the :name parameter as a pool name.
func ValidatePoolName() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := common.PoolNameCheck(c.Param("name")); err != nil {
			APIError(c, err)
			return
		}
		c.Next()
	}
}

// ValidateDatasetName validates the *name wildcard as a dataset,
// snapshot or bookmark name and stores it without its leading slash.
func ValidateDatasetName() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.Trim(c.Param("name"), "/")
		if name == "" {
			APIError(c, errors.New(errors.ServerRequestValidation, "dataset name required"))
			return
		}
		if err := common.EntityNameCheck(name); err != nil {
			APIError(c, err)
			return
		}
		c.Set("dataset", name)
		c.Next()
	}
}

// ValidateScope validates the :scope parameter.
func ValidateScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := property.ParseScope(c.Param("scope"))
		if err != nil {
			APIError(c, err)
			return
		}
		c.Set("scope", scope)
		c.Next()
	}
}

// LimitBody caps the request body so a document upload cannot exhaust
// memory.
func LimitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// splitList turns "a,b" query values into a slice, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
