// @title AI Image Gateway API
// @version 1.0
// @description Validates uploaded images and forwards them to an AI classification service.
// @BasePath /api
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ai-image-gateway/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [Bootstrap] starting image-gateway...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "image-gateway failed: %v\n", err)
		os.Exit(1)
	}
}
