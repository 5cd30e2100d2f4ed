package message

import "strings"

// Reaction reacts to an earlier message. An empty emoji removes the reaction.
type Reaction struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// NewReaction builds a reaction to messageID.
func NewReaction(messageID, emoji string) (Reaction, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return Reaction{}, required("reaction.message_id")
	}
	return Reaction{MessageID: messageID, Emoji: emoji}, nil
}

// ReadReceipt marks an inbound message as read.
type ReadReceipt struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// NewReadReceipt builds a read receipt for messageID.
func NewReadReceipt(messageID string) (ReadReceipt, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return ReadReceipt{}, required("message_id")
	}
	return ReadReceipt{MessagingProduct: MessagingProduct, Status: "read", MessageID: messageID}, nil
}
