package hierarchy

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// validateDraft checks the caller-supplied fields of a new item. The name is
// trimmed in place before length checks so surrounding whitespace never
// counts against the limit or sneaks into sibling-name comparisons.
func (s *hierarchyService) validateDraft(draft *models.ItemDraft) error {
	draft.Name = strings.TrimSpace(draft.Name)

	err := validation.Errors{
		"name": validation.Validate(draft.Name,
			validation.Required,
			validation.Length(1, s.limits.MaxItemNameLength),
		),
		"type": validation.Validate(string(draft.Type),
			validation.Required,
			validation.By(func(interface{}) error {
				if !draft.Type.Valid() {
					return fmt.Errorf("unknown item type %q", draft.Type)
				}
				return nil
			}),
		),
	}.Filter()
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}

func (s *hierarchyService) validateName(name string) error {
	err := validation.Validate(strings.TrimSpace(name),
		validation.Required,
		validation.Length(1, s.limits.MaxItemNameLength),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("name: %v", err)}
	}
	return nil
}
