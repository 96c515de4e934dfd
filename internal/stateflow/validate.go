package stateflow

import "github.com/vk/cryptoasl/internal/asl"

// Validate performs the static checks spec §4.3 requires before an
// interpretation ever runs: StartAt must name a real state, and every
// Next/Default/Catch.Next reference must resolve within the same
// Definition. Nested Map/Parallel definitions are validated recursively.
func Validate(def *asl.Definition) error {
	if def == nil {
		return &DefinitionError{Reason: "definition is nil"}
	}
	if def.StartAt == "" {
		return &DefinitionError{Reason: "StartAt is empty"}
	}
	if _, ok := def.States[def.StartAt]; !ok {
		return &DefinitionError{Reason: "StartAt names unknown state " + def.StartAt}
	}

	for name, s := range def.States {
		if err := validateState(def, name, s); err != nil {
			return err
		}
	}
	return nil
}

func validateState(def *asl.Definition, name string, s *asl.State) error {
	switch s.Type {
	case asl.TypeSucceed, asl.TypeFail:
		// Terminal; Next/End meaningless.
	default:
		if !s.End && s.Next == "" && s.Type != asl.TypeChoice {
			return &DefinitionError{State: name, Reason: "must set Next or End"}
		}
		if s.Next != "" {
			if _, ok := def.States[s.Next]; !ok {
				return &DefinitionError{State: name, Reason: "Next names unknown state " + s.Next}
			}
		}
	}

	if s.Type == asl.TypeChoice {
		if len(s.Choices) == 0 {
			return &DefinitionError{State: name, Reason: "Choice state has no Choices"}
		}
		for _, c := range s.Choices {
			if c.Next == "" {
				return &DefinitionError{State: name, Reason: "Choice rule missing Next"}
			}
			if _, ok := def.States[c.Next]; !ok {
				return &DefinitionError{State: name, Reason: "Choice rule Next names unknown state " + c.Next}
			}
		}
		if s.Default != "" {
			if _, ok := def.States[s.Default]; !ok {
				return &DefinitionError{State: name, Reason: "Default names unknown state " + s.Default}
			}
		}
	}

	for _, c := range s.Catch {
		if c.Next == "" {
			return &DefinitionError{State: name, Reason: "Catch rule missing Next"}
		}
		if _, ok := def.States[c.Next]; !ok {
			return &DefinitionError{State: name, Reason: "Catch rule Next names unknown state " + c.Next}
		}
	}

	if s.Type == asl.TypeMap && s.Iterator != nil {
		if err := Validate(s.Iterator); err != nil {
			return err
		}
	}
	if s.Type == asl.TypeParallel {
		for _, b := range s.Branches {
			if err := Validate(b); err != nil {
				return err
			}
		}
	}
	return nil
}
