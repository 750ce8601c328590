package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		address string
		expect  string
	}{
		{"ada.lovelace@example.com", "Ada Lovelace"},
		{"grace_hopper+ops@example.com", "Grace Hopper Ops"},
		{"root@example.com", "Root"},
		{"no-at-sign", "No At Sign"},
		{"@example.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.expect, DisplayName(tt.address))
		})
	}
}
