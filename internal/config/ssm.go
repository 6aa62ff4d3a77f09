package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ssm"
)

// ParamStore is an abstraction for a SSM client
type ParamStore interface {
	GetParameterWithContext(aws.Context, *ssm.GetParameterInput, ...request.Option) (*ssm.GetParameterOutput, error)
}

// ResolveCredential fetches the Airtable token from SSM Parameter Store when
// it is not set directly and a parameter name is configured.
func (s *Settings) ResolveCredential(ctx context.Context, ps ParamStore) error {

	if s.APIKey != "" || s.APIKeyParam == "" {
		return nil
	}

	if ps == nil {
		return &Error{Setting: SettingCredential, Reason: "no SSM client to read AIRTABLE_API_KEY_PARAM"}
	}

	in := &ssm.GetParameterInput{
		Name:           aws.String(s.APIKeyParam),
		WithDecryption: aws.Bool(true),
	}

	out, err := ps.GetParameterWithContext(ctx, in)
	if err != nil {
		return &Error{
			Setting: SettingCredential,
			Reason:  fmt.Sprintf("could not read parameter %v: %v", s.APIKeyParam, err),
		}
	}
	if out == nil || out.Parameter == nil {
		return &Error{Setting: SettingCredential, Reason: fmt.Sprintf("parameter %v has no value", s.APIKeyParam)}
	}

	s.APIKey = strings.TrimSpace(aws.StringValue(out.Parameter.Value))
	return nil
}
