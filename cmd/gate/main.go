// Function gate starts a SSM session and hands over to package gate.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/rs/zerolog"

	"github.com/UKHomeOffice/formgate/internal/config"
	"github.com/UKHomeOffice/formgate/internal/logger"
	"github.com/UKHomeOffice/formgate/pkg/gate"
)

var sess *session.Session
var essm *ssm.SSM
var log zerolog.Logger

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	essm = ssm.New(sess, &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))})

	ls := config.LoadLog()
	log = logger.New(logger.Config{Level: ls.Level, File: ls.File}).With().Str("function", "gate").Logger()
}

func handler(ctx context.Context, req *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	s, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("settings partly ignored")
	}
	return gate.NewHandler(essm, log).Handle(ctx, s, req)
}

func main() {
	lambda.Start(handler)
}
