// Command devserver runs the gate function behind a local HTTP server.
// Settings are read from the environment and from a .env file if present.
package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	_ "github.com/joho/godotenv/autoload"

	"github.com/UKHomeOffice/formgate/internal/config"
	"github.com/UKHomeOffice/formgate/internal/devserver"
	"github.com/UKHomeOffice/formgate/internal/logger"
	"github.com/UKHomeOffice/formgate/pkg/gate"
)

func main() {

	ls := config.LoadLog()
	log := logger.New(logger.Config{Level: ls.Level, File: ls.File}).With().Str("function", "devserver").Logger()

	// SSM is optional locally; without a session the credential must be set directly
	var ps config.ParamStore
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		log.Warn().Err(err).Msg("no AWS session, AIRTABLE_API_KEY_PARAM will not be read")
	} else {
		ps = ssm.New(sess)
	}

	addr := strings.TrimSpace(os.Getenv("DEV_ADDR"))
	if addr == "" {
		addr = ":8888"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           devserver.NewRouter(gate.NewHandler(ps, log), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
