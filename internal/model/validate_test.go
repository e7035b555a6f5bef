package model

import (
	"strings"
	"testing"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/stretchr/testify/require"
)

func TestValidateCommentDraft(t *testing.T) {
	png := MediaItem{Filename: "a.png", ContentType: "image/png", Size: 10}

	tests := []struct {
		name    string
		content string
		media   []MediaItem
		param   string
	}{
		{name: "empty", content: "  ", param: "content"},
		{name: "too long", content: strings.Repeat("a", constant.MAX_COMMENT_LENGTH+1), param: "content"},
		{name: "too many attachments", content: "hi", media: []MediaItem{png, png, png, png, png}, param: "media"},
		{name: "pdf attachment", content: "hi", media: []MediaItem{png, {Filename: "doc.pdf", ContentType: "application/pdf"}}, param: "media[1]"},
		{name: "text file named as image", content: "hi", media: []MediaItem{{Filename: "a.png", ContentType: "text/plain"}}, param: "media[0]"},
		{name: "unknown extension", content: "", media: []MediaItem{{Filename: "notes.txt"}}, param: "media[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommentDraft(tt.content, tt.media)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, constant.ERR_VALIDATION_CODE, validationErr.Code)
			require.Equal(t, tt.param, validationErr.Param)
		})
	}

	require.NoError(t, ValidateCommentDraft("hello", nil))
	require.NoError(t, ValidateCommentDraft("", []MediaItem{png, {Filename: "b.JPG"}}))
}
