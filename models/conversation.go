package models

import "time"

// ConversationStep enumerates the dialogue states of the booking machine.
type ConversationStep string

const (
	StepWaitingForFrom              ConversationStep = "waiting_for_from"
	StepWaitingForTo                ConversationStep = "waiting_for_to"
	StepWaitingForTime              ConversationStep = "waiting_for_time"
	StepWaitingForDriver            ConversationStep = "waiting_for_driver"
	StepWaitingForAlternativeDriver ConversationStep = "waiting_for_alternative_driver"
	StepWaitingForAlternativeTime   ConversationStep = "waiting_for_alternative_time"
	StepCompleted                   ConversationStep = "completed"
	StepAIManaged                   ConversationStep = "ai_managed"
)

// MaxHistoryMessages bounds the stored conversation history; oldest entries
// are evicted first.
const MaxHistoryMessages = 20

// RideSlots is the partially collected booking data of a conversation.
type RideSlots struct {
	From              string     `bson:"from,omitempty" json:"from,omitempty"`
	To                string     `bson:"to,omitempty" json:"to,omitempty"`
	Time              *time.Time `bson:"time,omitempty" json:"time,omitempty"`
	EstimatedDuration int        `bson:"estimatedDuration,omitempty" json:"estimatedDuration,omitempty"`
	DriverPhone       string     `bson:"driverPhone,omitempty" json:"driverPhone,omitempty"`
}

// Complete reports whether all four booking slots are filled.
func (s RideSlots) Complete() bool {
	return s.From != "" && s.To != "" && s.Time != nil && s.DriverPhone != ""
}

// Message is one turn of conversation history.
type Message struct {
	Role      string    `bson:"role" json:"role"` // "user" or "assistant"
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Conversation is the per-phone dialogue state. At most one active instance
// exists per phone; retirement clears slots and history but keeps the
// phone-linked identity.
type Conversation struct {
	Phone            string           `bson:"phone" json:"phone"`
	Step             ConversationStep `bson:"step" json:"step"`
	Slots            RideSlots        `bson:"slots" json:"slots"`
	History          []Message        `bson:"history,omitempty" json:"history,omitempty"`
	AIEnabled        bool             `bson:"aiEnabled" json:"aiEnabled"`
	LastValidContext *RideSlots       `bson:"lastValidContext,omitempty" json:"lastValidContext,omitempty"`
	LastMessageAt    time.Time        `bson:"lastMessageAt" json:"lastMessageAt"`
	CreatedAt        time.Time        `bson:"createdAt" json:"createdAt"`
}

// AddMessage appends a turn to the bounded history.
func (c *Conversation) AddMessage(role, content string) {
	c.History = append(c.History, Message{Role: role, Content: content, Timestamp: time.Now()})
	if len(c.History) > MaxHistoryMessages {
		c.History = c.History[len(c.History)-MaxHistoryMessages:]
	}
	c.LastMessageAt = time.Now()
}

// RecentHistory returns up to limit of the latest turns.
func (c *Conversation) RecentHistory(limit int) []Message {
	if limit <= 0 || len(c.History) <= limit {
		return c.History
	}
	return c.History[len(c.History)-limit:]
}
