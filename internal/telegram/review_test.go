package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mediarelay/internal/models"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		data       string
		wantAction string
		wantHandle string
		wantOK     bool
	}{
		{"approve:2azRXk0sMPHwNZ8pvKAXRhVLxyz", "approve", "2azRXk0sMPHwNZ8pvKAXRhVLxyz", true},
		{"reject:abc", "reject", "abc", true},
		{"approve:", "", "", false},
		{"garbage", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		action, handle, ok := parseCallbackData(tt.data)
		assert.Equal(t, tt.wantOK, ok, "data %q", tt.data)
		assert.Equal(t, tt.wantAction, action)
		assert.Equal(t, tt.wantHandle, handle)
	}
}

func TestApprovalPromptText(t *testing.T) {
	text := approvalPromptText(models.FileCandidate{
		Kind:         models.KindDocument,
		OriginalName: "report<2025>.pdf",
		SizeBytes:    2 << 20,
		Caption:      "q3 & q4",
	})

	assert.Contains(t, text, "report&lt;2025&gt;.pdf", "names must be html-escaped")
	assert.Contains(t, text, "q3 &amp; q4")
	assert.Contains(t, text, "2.0 MiB")
	assert.Contains(t, text, "📄")
}
