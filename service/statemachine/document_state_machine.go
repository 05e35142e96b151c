package statemachine

import (
	"fmt"
	"log/slog"

	"github.com/AnTengye/docsign/model"
)

// DocumentStatus is the lifecycle state of a generated document.
type DocumentStatus string

const (
	DocStatusGenerated        DocumentStatus = model.StatusGenerated
	DocStatusPendingSignature DocumentStatus = model.StatusPendingSignature
	DocStatusSigned           DocumentStatus = model.StatusSigned
	DocStatusArchived         DocumentStatus = model.StatusArchived
)

// DocumentTransition is one edge of the lifecycle.
type DocumentTransition struct {
	From DocumentStatus
	To   DocumentStatus
}

// DocumentStateMachine holds the legal lifecycle edges. Generation only ever
// moves generated -> pending_signature; the other edges are driven by
// external signing and retention events.
type DocumentStateMachine struct {
	allowedTransitions map[DocumentTransition]bool
}

func NewDocumentStateMachine() *DocumentStateMachine {
	sm := &DocumentStateMachine{
		allowedTransitions: make(map[DocumentTransition]bool),
	}

	transitions := []DocumentTransition{
		{DocStatusGenerated, DocStatusPendingSignature},
		{DocStatusGenerated, DocStatusArchived},

		{DocStatusPendingSignature, DocStatusSigned},
		{DocStatusPendingSignature, DocStatusArchived},

		{DocStatusSigned, DocStatusArchived},
	}
	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}
	return sm
}

func (sm *DocumentStateMachine) CanTransition(from, to DocumentStatus) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[DocumentTransition{From: from, To: to}]
}

func (sm *DocumentStateMachine) ValidateTransition(from, to DocumentStatus) error {
	if !sm.CanTransition(from, to) {
		return &InvalidDocumentStateTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// Transition validates a move and logs the outcome.
func (sm *DocumentStateMachine) Transition(from, to DocumentStatus, documentID string) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		slog.Debug("document state transition rejected",
			"document_id", documentID, "from", from, "to", to, "error", err)
		return err
	}
	slog.Debug("document state transition", "document_id", documentID, "from", from, "to", to)
	return nil
}

// Allowed lists the states reachable from from.
func (sm *DocumentStateMachine) Allowed(from DocumentStatus) []DocumentStatus {
	var out []DocumentStatus
	for _, to := range []DocumentStatus{DocStatusGenerated, DocStatusPendingSignature, DocStatusSigned, DocStatusArchived} {
		if sm.CanTransition(from, to) {
			out = append(out, to)
		}
	}
	return out
}

type InvalidDocumentStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidDocumentStateTransitionError) Error() string {
	return fmt.Sprintf("invalid document state transition: %s -> %s", e.From, e.To)
}

// InitialStatus is the status a freshly generated document is stored with.
// A pending signature moves it straight to pending_signature.
func (sm *DocumentStateMachine) InitialStatus(signaturePending bool, documentID string) (DocumentStatus, error) {
	if !signaturePending {
		return DocStatusGenerated, nil
	}
	if err := sm.Transition(DocStatusGenerated, DocStatusPendingSignature, documentID); err != nil {
		return DocStatusGenerated, err
	}
	return DocStatusPendingSignature, nil
}
