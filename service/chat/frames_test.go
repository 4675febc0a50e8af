package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"init-chat","data":{"visitorId":"v1"}}`))
	require.NoError(t, err)
	require.Equal(t, EvInitChat, f.Event)

	data, ok := f.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "v1", data["visitorId"])
}

func TestParseFrameMissingEvent(t *testing.T) {
	_, err := ParseFrame([]byte(`{"data":{"visitorId":"v1"}}`))
	require.Error(t, err)

	_, err = ParseFrame([]byte(`{"event":"  "}`))
	require.Error(t, err)
}

func TestParseFrameBadJSON(t *testing.T) {
	_, err := ParseFrame([]byte(`{"event":`))
	require.Error(t, err)
}

func TestMarshalFrame(t *testing.T) {
	raw, err := marshalFrame(EvError, &ErrorNotice{Message: "invalid argument"})
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"error","data":{"message":"invalid argument"}}`, string(raw))
}
