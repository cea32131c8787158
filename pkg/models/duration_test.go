package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	var holder struct {
		Timeout Duration `json:"timeout"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"timeout": "2s"}`), &holder))
	assert.Equal(t, 2*time.Second, time.Duration(holder.Timeout))

	require.NoError(t, json.Unmarshal([]byte(`{"timeout": 1500000000}`), &holder))
	assert.Equal(t, 1500*time.Millisecond, time.Duration(holder.Timeout))

	assert.Error(t, json.Unmarshal([]byte(`{"timeout": "soon"}`), &holder))
	assert.Error(t, json.Unmarshal([]byte(`{"timeout": true}`), &holder))
}
