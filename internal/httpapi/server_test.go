package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/usecase"
)

type describerFunc func(ctx context.Context, bookID int64) (domain.DescribeResult, error)

func (f describerFunc) Describe(ctx context.Context, bookID int64) (domain.DescribeResult, error) {
	return f(ctx, bookID)
}

func serve(t *testing.T, d Describer, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	router := NewRouter(NewHandler(d, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestDescriptionFound(t *testing.T) {
	var gotID int64
	d := describerFunc(func(_ context.Context, id int64) (domain.DescribeResult, error) {
		gotID = id
		return domain.DescribeResult{BookID: id, Description: "Учебное пособие.", Cached: true}, nil
	})

	rec, body := serve(t, d, "/api/descriptions/42")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 42, gotID)
	require.Equal(t, map[string]any{
		"doc_id":      float64(42),
		"description": "Учебное пособие.",
		"cached":      true,
	}, body)
}

func TestDescriptionFailed(t *testing.T) {
	d := describerFunc(func(_ context.Context, id int64) (domain.DescribeResult, error) {
		return domain.DescribeResult{BookID: id, Failed: true}, nil
	})

	rec, body := serve(t, d, "/api/descriptions/7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{
		"doc_id":      float64(7),
		"description": nil,
		"cached":      false,
		"failed":      true,
	}, body)
}

func TestDescriptionGenerating(t *testing.T) {
	d := describerFunc(func(_ context.Context, id int64) (domain.DescribeResult, error) {
		return domain.DescribeResult{BookID: id}, usecase.ErrGenerationInProgress
	})

	rec, body := serve(t, d, "/api/descriptions/9")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Nil(t, body["description"])
	require.Equal(t, true, body["generating"])
}

func TestDescriptionInternalError(t *testing.T) {
	d := describerFunc(func(context.Context, int64) (domain.DescribeResult, error) {
		return domain.DescribeResult{}, errors.New("ledger down")
	})

	rec, body := serve(t, d, "/api/descriptions/3")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to get book description", body["error"])
}

func TestDescriptionInvalidID(t *testing.T) {
	d := describerFunc(func(context.Context, int64) (domain.DescribeResult, error) {
		t.Fatal("describer must not be called")
		return domain.DescribeResult{}, nil
	})

	for _, id := range []string{"abc", "0", "-5", "1.5"} {
		rec, body := serve(t, d, "/api/descriptions/"+id)
		require.Equal(t, http.StatusBadRequest, rec.Code, id)
		require.Equal(t, "Invalid doc_id", body["error"])
	}
}

func TestHealth(t *testing.T) {
	rec, body := serve(t, nil, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}
