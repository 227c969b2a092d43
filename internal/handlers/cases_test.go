package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

func TestCaseHandler_List(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddCaseFile("harbour_lantern.yaml", harbourCase())
	store.AddCaseFile("orchard_frost.yaml", &casefile.CaseFile{ID: "orchard_frost", Name: "A Frost in the Orchard"})

	handler := NewCaseHandler(store, testLogger())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/cases", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var cases []CaseSummary
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cases))
	assert.Equal(t, []CaseSummary{
		{Name: "A Frost in the Orchard", FileName: "orchard_frost.yaml"},
		{Name: "The Harbour Lantern", FileName: "harbour_lantern.yaml"},
	}, cases)
}

func TestCaseHandler_Empty(t *testing.T) {
	handler := NewCaseHandler(storage.NewMockStorage(), testLogger())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/cases", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}
