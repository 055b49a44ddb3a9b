// Command pincodes writes sample serviceable-pincode lists for local runs.
//
//	go run ./scripts/pincodes
package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Each region is a separate file; the delivery directory serves their union.
// 560001 appears twice to show that overlaps are harmless.
var regions = map[string][]string{
	"south.gz": {
		"# Bengaluru, Chennai, Hyderabad",
		"560001",
		"560034",
		"560095",
		"600001",
		"600040",
		"500001,Hyderabad GPO",
	},
	"west.gz": {
		"# Mumbai, Pune, Ahmedabad",
		"400001",
		"400050",
		"411001",
		"380001",
		"560001",
	},
	"north.gz": {
		"# Delhi, Chandigarh",
		"110001",
		"110017",
		"160017",
	},
}

func main() {
	dataDir := "data/pincodes"

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	for filename, lines := range regions {
		filePath := filepath.Join(dataDir, filename)

		if err := writeList(filePath, lines); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d lines\n", filePath, len(lines))
	}

	fmt.Println("\nSample pincode files created.")
	fmt.Println("Serviceable: 560001, 400001, 110001 and the rest listed above.")
	fmt.Println("Not serviceable: any other valid pincode, e.g. 700001 (Kolkata).")
}

func writeList(filePath string, lines []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(gzipWriter, line); err != nil {
			return fmt.Errorf("failed to write line: %w", err)
		}
	}
	return gzipWriter.Close()
}
