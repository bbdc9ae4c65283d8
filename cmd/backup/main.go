// Function backup loads its config, starts an optional SQS session and hands over to package backup.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/paymangay/backuprelay/internal/config"
	"github.com/paymangay/backuprelay/internal/logger"
	"github.com/paymangay/backuprelay/internal/notify"
	"github.com/paymangay/backuprelay/pkg/backup"
)

var h *backup.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel)

	var pub backup.Publisher
	if cfg.Notifications() {
		sess := session.Must(session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		}))
		esqs := sqs.New(sess, &aws.Config{Region: aws.String(cfg.Region)})
		pub = notify.NewPublisher(esqs, cfg.QueueURL)
	}

	log.Info().Str("institute_url", cfg.InstituteURL).Bool("notifications", pub != nil).Msg("backup relay ready")
	h = backup.NewHandler(cfg, log, pub)
}

func main() {
	lambda.Start(h.Handle)
}
