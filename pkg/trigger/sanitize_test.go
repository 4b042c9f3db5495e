package trigger_test

import (
	"strings"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int
		want    string
		wantErr error
	}{
		{"clean", "SM|0722333444|250", 0, "SM|0722333444|250", nil},
		{"strips escapes", "BG|55\x1b[31m44|90\x00", 0, "BG|55[31m44|90", nil},
		{"keeps whitespace", "SM|\t500\r\n", 0, "SM|\t500\r\n", nil},
		{"too large", strings.Repeat("9", 11), 10, "", trigger.ErrBodyTooLarge},
		{"invalid utf8", "SM|\xff", 0, "", trigger.ErrInvalidUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := trigger.Sanitize(tt.input, tt.limit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpret_MalformedBody(t *testing.T) {
	_, err := trigger.Interpret(policy(), trigger.Message{Sender: "0798765432", Body: strings.Repeat("SM|1", 300)})
	var rej *trigger.RejectError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, trigger.ReasonMalformed, rej.Reason)

	req, err := trigger.Interpret(policy(), trigger.Message{Sender: "0798765432", Body: "BG|5544\x07|90"})
	require.NoError(t, err)
	assert.Equal(t, "5544", req.Till)
}
