package statemachine

import (
	"fmt"
	"strings"

	"vehicle-vault-api/models"
)

const (
	ActorRecipient = "recipient"
	ActorSystem    = "system"
)

// Transition defines a valid status change and who can perform it
type Transition struct {
	From  models.NotificationStatus `json:"from"`
	To    models.NotificationStatus `json:"to"`
	Actor string                    `json:"actor"`
}

// validTransitions is the authoritative notification lifecycle.
// "read" is only ever an initial status, so nothing leads into it.
var validTransitions = []Transition{
	{From: models.NotificationPending, To: models.NotificationAccepted, Actor: ActorRecipient},
	{From: models.NotificationPending, To: models.NotificationDeclined, Actor: ActorRecipient},
}

type transitionKey struct {
	From  models.NotificationStatus
	To    models.NotificationStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// IsResponse reports whether status is one a recipient may answer with.
func IsResponse(status models.NotificationStatus) bool {
	return status == models.NotificationAccepted || status == models.NotificationDeclined
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.NotificationStatus) []models.NotificationStatus {
	nexts := []models.NotificationStatus{}
	seen := map[models.NotificationStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.NotificationStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.NotificationStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.NotificationStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}

// TerminalStates lists statuses with no outgoing transition.
func TerminalStates() []models.NotificationStatus {
	return []models.NotificationStatus{
		models.NotificationAccepted,
		models.NotificationDeclined,
		models.NotificationRead,
	}
}
