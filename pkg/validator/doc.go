// Package validator builds declarative validation rules.
//
// Each helper returns a Rule; Apply evaluates them all and aggregates the
// failures into ValidationErrors, which implements error:
//
//	err := validator.Apply(
//		validator.Email("email", req.Email),
//		validator.MaxItems("items", req.Items, 100),
//	)
//	if verrs, ok := validator.As(err); ok {
//		// verrs.Fields()["email"] holds the email messages
//	}
package validator
