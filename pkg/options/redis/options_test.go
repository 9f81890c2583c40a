package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/pkg/utils/json"
)

func TestPasswordIsRedacted(t *testing.T) {
	o := NewOptions()
	o.Password = "secret"

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), redactedPassword)
	assert.NotContains(t, o.String(), "secret")
}

func TestCompleteFromEnv(t *testing.T) {
	t.Setenv("REDIS_PASSWORD", "from-env")
	o := NewOptions()
	require.NoError(t, o.Complete())
	assert.Equal(t, "from-env", o.Password)
	assert.Equal(t, "127.0.0.1:6379", o.NewClient().Options().Addr)
}
