// Command barcodedd runs the barcode daemon in the foreground for service
// managers. It takes no flags; BARCODED_CONFIG selects the config file.
package main

import (
	"context"
	"log"
	"os"

	"barcoded/internal/daemonrun"
)

func main() {
	cfg, err := loadConfig(os.Getenv(configEnv))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Fatalf("barcodedd: %v", err)
	}
}
