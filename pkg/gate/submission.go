package gate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/UKHomeOffice/formgate/pkg/airtable"
)

// Submission is one form post
type Submission struct {
	Name    string `validate:"required"`
	Email   string `validate:"required"`
	Company string `validate:"required"`
}

var validate = validator.New()

// readBody returns the request body as text
func readBody(request *events.APIGatewayProxyRequest) (string, *Failure) {

	if !request.IsBase64Encoded {
		return request.Body, nil
	}

	b, err := base64.StdEncoding.DecodeString(request.Body)
	if err != nil {
		return "", &Failure{
			Kind:   KindInvalidBody,
			Phase:  PhaseParseBody,
			Detail: fmt.Sprintf("could not decode base64 body: %v", err),
		}
	}
	return string(b), nil
}

// parseSubmission gets the form fields from the body. Absent fields are
// left empty; a JSON document that is not an object has no fields.
func parseSubmission(input string) (Submission, *Failure) {

	if !gjson.Valid(input) {
		return Submission{}, &Failure{
			Kind:   KindInvalidBody,
			Phase:  PhaseParseBody,
			Detail: "request body is not valid JSON",
		}
	}

	s := Submission{
		Name:    strings.TrimSpace(gjson.Get(input, "name").String()),
		Email:   strings.TrimSpace(gjson.Get(input, "email").String()),
		Company: strings.TrimSpace(gjson.Get(input, "company").String()),
	}

	return s, nil
}

// check makes sure every field has a value
func (s Submission) check() *Failure {

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &Failure{Kind: KindMissingField, Phase: PhaseValidatePayload, Detail: err.Error()}
	}

	missing := make([]string, 0, len(ve))
	for _, fe := range ve {
		missing = append(missing, strings.ToLower(fe.Field()))
	}

	return &Failure{
		Kind:   KindMissingField,
		Phase:  PhaseValidatePayload,
		Detail: "missing " + strings.Join(missing, ", "),
	}
}

// fields maps a submission to the Airtable columns
func (s Submission) fields() airtable.Fields {
	return airtable.Fields{
		Name:    s.Name,
		Email:   s.Email,
		Company: s.Company,
	}
}
