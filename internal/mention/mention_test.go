package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bare username",
			text: "ping @alice about this",
			want: []string{"alice"},
		},
		{
			name: "quoted full name",
			text: `escalating to @"Bob Smith" now`,
			want: []string{"Bob Smith"},
		},
		{
			name: "mixed tokens keep order",
			text: `ping @alice and @"Bob Smith" before release`,
			want: []string{"alice", "Bob Smith"},
		},
		{
			name: "duplicates collapse",
			text: "@alice @alice @alice",
			want: []string{"alice"},
		},
		{
			name: "no mentions",
			text: "plain text without references",
			want: nil,
		},
		{
			name: "email address still yields token",
			text: "contact alice@example.com",
			want: []string{"example"},
		},
		{
			name: "underscores and digits",
			text: "review by @qa_lead2",
			want: []string{"qa_lead2"},
		},
		{
			name: "bare at sign ignored",
			text: "meet @ noon",
			want: nil,
		},
		{
			name: "unterminated quote ignored",
			text: `hello @"Bob`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.text))
		})
	}
}
