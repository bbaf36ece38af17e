package toolserver

import (
	"context"

	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func handleGetRelationshipSuggestions(_ context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	return s.relEngine.GetRelationshipSuggestions(), nil
}

func handleValidateRelationship(_ context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	id, err := requireString(args, "suggestionId")
	if err != nil {
		return nil, err
	}
	action, err := requireString(args, "action")
	if err != nil {
		return nil, err
	}
	status := relationship.ValidationStatus(action)
	switch status {
	case relationship.ValidationConfirmed, relationship.ValidationRejected, relationship.ValidationModified:
	default:
		return nil, types.NewError(types.KindValidation, "action must be confirmed, rejected, or modified", nil)
	}
	ok, err := s.relEngine.ValidateRelationship(id, status)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"success": ok}, nil
}

func handleGetValidationStats(_ context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	return s.relEngine.GetValidationStats(), nil
}
