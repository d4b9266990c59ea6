// Operator tool: re-queue a backup job for every resource whose remote sync
// previously exhausted its retries.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/studyarc/resourcebank-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	count, err := a.Services.Backup.BatchRetry(context.Background())
	if err != nil {
		a.Log.Error("batch retry failed", "error", err)
		os.Exit(1)
	}
	a.Log.Info("batch retry complete", "requeued", count)
}
