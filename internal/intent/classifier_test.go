package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		text string
		want entity.ActionKind
	}{
		{name: "email", text: "please send an email to the finance team", want: entity.KindSendEmail},
		{name: "meeting", text: "schedule a meeting with Dana next Tuesday", want: entity.KindScheduleMeeting},
		{name: "teams", text: "post the announcement in the general channel", want: entity.KindPostToTeams},
		{name: "case insensitive", text: "Send An EMAIL please", want: entity.KindSendEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.text)
			assert.Equal(t, tt.want, result.Kind)
			assert.Greater(t, result.Confidence, 0.0)
			assert.NotEmpty(t, result.SuggestedActions)
		})
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := NewClassifier()

	result := c.Classify("what is the weather today")
	assert.Empty(t, result.Kind)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.SuggestedActions)
}

func TestClassifyMixedSignalsLowerConfidence(t *testing.T) {
	c := NewClassifier()

	pure := c.Classify("send an email")
	mixed := c.Classify("email the team about the meeting invite in the channel")

	assert.Equal(t, 1.0, pure.Confidence)
	assert.Less(t, mixed.Confidence, 1.0)
}
