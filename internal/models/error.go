package models

// BaseError is the base type for API errors
type BaseError struct {
	Error string `json:"error" example:"something bad"`
}

// InternalServerError is the error returned when the server hits an unexpected condition.
type InternalServerError struct {
	BaseError
	TraceId string `json:"trace_id" example:"b8b1aa7e30d2d25fdbd2cfdfa6c2d5b1"`
}

func NewApiError(err error) BaseError {
	return BaseError{
		Error: err.Error(),
	}
}

// ValidationError is returned in the body of an HTTP 400
type ValidationError struct {
	BaseError
	Field string `json:"field,omitempty"`
}

func NewBadPayloadError(err error) ValidationError {
	msg := "request json is invalid"
	if err != nil {
		msg += ": " + err.Error()
	}
	return ValidationError{
		BaseError: BaseError{
			Error: msg,
		},
	}
}

func NewBadPathParameterError(param string) ValidationError {
	return ValidationError{
		Field: param,
		BaseError: BaseError{
			Error: "path parameter invalid",
		},
	}
}

func NewFieldNotPresentError(field string) ValidationError {
	return ValidationError{
		Field: field,
		BaseError: BaseError{
			Error: "field not present",
		},
	}
}

func NewFieldValidationError(field string, reason string) ValidationError {
	return ValidationError{
		Field: field,
		BaseError: BaseError{
			Error: reason,
		},
	}
}

// ConflictsError is returned in the body of an HTTP 409
type ConflictsError struct {
	BaseError
	Resource string `json:"resource,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func NewConflictsError(resource string, reason string) ConflictsError {
	return ConflictsError{
		Resource: resource,
		Reason:   reason,
		BaseError: BaseError{
			Error: "conflict",
		},
	}
}

// NotFoundError is returned in the body of an HTTP 404
type NotFoundError struct {
	BaseError
	Resource string `json:"resource,omitempty"`
}

func NewNotFoundError(resource string) NotFoundError {
	return NotFoundError{
		Resource: resource,
		BaseError: BaseError{
			Error: "not found",
		},
	}
}

// NotAllowedError is returned in the body of an HTTP 403 or 405
type NotAllowedError struct {
	BaseError
	Reason string `json:"reason,omitempty"`
}

func NewNotAllowedError(reason string) NotAllowedError {
	return NotAllowedError{
		Reason: reason,
		BaseError: BaseError{
			Error: "operation not allowed",
		},
	}
}

// UnavailableError is returned in the body of an HTTP 503
type UnavailableError struct {
	BaseError
	Reason string `json:"reason,omitempty"`
}

func NewUnavailableError(reason string) UnavailableError {
	return UnavailableError{
		Reason: reason,
		BaseError: BaseError{
			Error: "service unavailable",
		},
	}
}
