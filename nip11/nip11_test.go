package nip11

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSupportsNIP(t *testing.T) {
	doc := RelayInformationDocument{SupportedNIPs: []int{1, 2, 11, 13, 40}}
	require.True(t, doc.SupportsNIP(11))
	require.False(t, doc.SupportsNIP(4))
}

func TestDecode(t *testing.T) {
	raw := `{
		"name": "test relay",
		"description": "a relay for testing",
		"pubkey": "abc123",
		"supported_nips": [1, 11],
		"software": "gitrepo",
		"version": "1.0.0",
		"limitation": {"max_message_length": 65536, "auth_required": true}
	}`

	var doc RelayInformationDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Equal(t, "test relay", doc.Name)
	require.True(t, doc.SupportsNIP(1))
	require.NotNil(t, doc.Limitation)
	require.True(t, doc.Limitation.AuthRequired)
	require.Equal(t, 65536, doc.Limitation.MaxMessageLength)
}
