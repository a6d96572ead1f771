package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cptracker/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name       string
		role       any
		wantStatus int
		wantNext   bool
	}{
		{"admin passes", model.RoleAdmin, http.StatusOK, true},
		{"mentor forbidden", model.RoleMentor, http.StatusForbidden, false},
		{"missing role forbidden", nil, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			handler := AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			}))

			req := httptest.NewRequest(http.MethodDelete, "/students/abc", nil)
			if tt.role != nil {
				req = req.WithContext(context.WithValue(req.Context(), UserRoleCtxKey, tt.role))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
		})
	}
}
