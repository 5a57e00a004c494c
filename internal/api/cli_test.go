package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lineforge/shopsched/internal/api"
	sched "github.com/lineforge/shopsched/internal/scheduling"
)

func TestRunFileSolvesValidRequest(t *testing.T) {
	svc := sched.NewService(nil, nil)
	var out bytes.Buffer

	ok, err := api.RunFile(context.Background(), svc, bytes.NewBufferString(validBody), &out)
	require.NoError(t, err)
	require.True(t, ok)

	var body struct {
		Assignments []map[string]any `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	require.Len(t, body.Assignments, 1)
}

func TestRunFileReportsErrorResponseForInvalidRequest(t *testing.T) {
	svc := sched.NewService(nil, nil)
	var out bytes.Buffer

	ok, err := api.RunFile(context.Background(), svc, bytes.NewBufferString(`{"horizon":{"start":"bad","end":"bad"}}`), &out)
	require.Error(t, err)
	require.False(t, ok)

	var body struct {
		Error string   `json:"error"`
		Why   []string `json:"why"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	require.Equal(t, "invalid_request", body.Error)
	require.NotEmpty(t, body.Why)
}
