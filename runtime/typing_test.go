package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTyping_Set_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	typing := NewTyping()
	sender := uuid.NewString()
	recipient := uuid.NewString()

	typing.Set(sender, recipient)
	typing.Set(sender, recipient)

	req.True(typing.IsTyping(sender, recipient))
	req.Len(typing.byRecipient[recipient], 1)
}

func TestTyping_Clear_Non_Member_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	typing := NewTyping()

	// Clearing a pair that was never set must not fail or leave state behind
	typing.Clear(uuid.NewString(), uuid.NewString())

	req.Empty(typing.byRecipient)
}

func TestTyping_Clear_Twice_Leaves_Set_Without_Sender(t *testing.T) {
	req := require.New(t)
	typing := NewTyping()
	sender := uuid.NewString()
	recipient := uuid.NewString()

	typing.Set(sender, recipient)
	typing.Clear(sender, recipient)
	typing.Clear(sender, recipient)

	req.False(typing.IsTyping(sender, recipient))
}

func TestTyping_Empty_Sets_Are_Pruned(t *testing.T) {
	req := require.New(t)
	typing := NewTyping()
	sender := uuid.NewString()
	recipient := uuid.NewString()

	typing.Set(sender, recipient)
	typing.Clear(sender, recipient)

	req.Empty(typing.byRecipient)
}

func TestTyping_ClearAllForSender_Returns_Affected_Recipients(t *testing.T) {
	req := require.New(t)
	typing := NewTyping()
	sender := uuid.NewString()
	recipientA := uuid.NewString()
	recipientB := uuid.NewString()
	bystander := uuid.NewString()

	// Given a sender typing towards two recipients and another sender active
	typing.Set(sender, recipientA)
	typing.Set(sender, recipientB)
	typing.Set(bystander, recipientA)

	// When the sender disconnects
	affected := typing.ClearAllForSender(sender)

	// Then both recipients are reported and the bystander is untouched
	req.ElementsMatch([]string{recipientA, recipientB}, affected)
	req.False(typing.IsTyping(sender, recipientA))
	req.False(typing.IsTyping(sender, recipientB))
	req.True(typing.IsTyping(bystander, recipientA))
}
