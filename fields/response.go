package fields

// Response is the envelope every pushgate endpoint answers with. The HTTP
// status code carries the semantic result; the body only distinguishes
// success from failure and describes what went wrong.
type Response struct {
	Status ResponseStatus  `json:"status"`
	Errors []ResponseError `json:"errors,omitempty"`
	Fields []ErrorField    `json:"fields,omitempty"`
}

type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "SUCCESS"
	StatusFailure ResponseStatus = "FAILURE"
)

type ResponseError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ErrorField points at the request field that caused a failure.
type ErrorField struct {
	Field       string        `json:"field"`
	Description string        `json:"description"`
	Location    FieldLocation `json:"location"`
}

type FieldLocation string

const (
	LocationBody   FieldLocation = "body"
	LocationHeader FieldLocation = "header"
	LocationPath   FieldLocation = "path"
)

func NewSuccessResponse() Response {
	return Response{Status: StatusSuccess}
}

func NewFailureResponse(errs ...ResponseError) Response {
	return Response{Status: StatusFailure, Errors: errs}
}

func (r Response) WithField(field, description string, location FieldLocation) Response {
	r.Fields = append(r.Fields, ErrorField{Field: field, Description: description, Location: location})
	return r
}
