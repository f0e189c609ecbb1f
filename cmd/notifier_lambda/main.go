package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/spinworks/wallet-core/pkg/notify"
)

var (
	webhookURL string
	httpClient = &http.Client{Timeout: 10 * time.Second}
)

func init() {
	// Load environment variables from .env file (useful for local testing).
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	webhookURL = os.Getenv("NOTIFY_WEBHOOK_URL")
	if webhookURL == "" {
		log.Fatal("NOTIFY_WEBHOOK_URL environment variable not set")
	}
}

// HandleRequest processes queued admin notifications and delivers them to
// the downstream notification service.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var n notify.Notification
		if err := json.Unmarshal([]byte(message.Body), &n); err != nil {
			log.Printf("ERROR: failed to unmarshal notification from SQS message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message.
			return err
		}

		if err := deliver(ctx, n); err != nil {
			log.Printf("ERROR: failed to deliver notification for alert %s to admin %s: %v", n.AlertID, n.AdminUserID, err)
			// Persistent failures end up in the DLQ after SQS retries.
			return err
		}

		log.Printf("Delivered alert %s to admin %s", n.AlertID, n.AdminUserID)
	}

	return nil
}

// deliver posts one notification to the downstream service.
func deliver(ctx context.Context, n notify.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &deliveryError{status: resp.StatusCode}
	}
	return nil
}

type deliveryError struct {
	status int
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("notification service returned status %d", e.status)
}

func main() {
	lambda.Start(HandleRequest)
}
