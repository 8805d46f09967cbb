package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrackr/jobtrackr/internal/pkg/env"
)

func TestSendMailRequiresConfiguredHost(t *testing.T) {
	env.Env = nil
	t.Setenv("SMTP_HOST", "")

	err := SendMail("user@example.com", "Payment failed", "<p>notice</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_HOST")
}
