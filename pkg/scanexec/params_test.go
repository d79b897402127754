package scanexec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParams_TimeoutAsDurationString(t *testing.T) {
	data, err := json.Marshal(Params{Target: "192.0.2.10", Ports: "22", Timeout: 750 * time.Millisecond, Workers: 8})
	require.NoError(t, err)
	require.JSONEq(t, `{"target":"192.0.2.10","ports":"22","timeout":"750ms","workers":8}`, string(data))

	var p Params
	require.NoError(t, json.Unmarshal(data, &p))
	require.Equal(t, 750*time.Millisecond, p.Timeout)
	require.Equal(t, 8, p.Workers)
	require.Equal(t, "192.0.2.10", p.Target)
}

func TestParams_OmitsZeroTimeout(t *testing.T) {
	data, err := json.Marshal(Params{Target: "127.0.0.1"})
	require.NoError(t, err)
	require.NotContains(t, string(data), "timeout")
}

func TestParams_RejectsBadTimeout(t *testing.T) {
	var p Params
	require.Error(t, json.Unmarshal([]byte(`{"target":"127.0.0.1","timeout":"soon"}`), &p))
}
