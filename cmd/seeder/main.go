// cmd/seeder/main.go
//
// Generates a sample recipients CSV for local testing of the upload and
// sendcsv flows.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
)

var (
	names = []string{"Aarav Shah", "Beatrice Wong", "Carlos Mendez", "Divya Nair", "Ewa Kowalska", "Farid Rahman", "Grace Otieno", "Hiro Tanaka"}

	companies = []string{"Acme Textiles", "Beta Logistics", "Crescent Foods", "Deltaline Motors", "Everspring Labs", "Fairmont Traders"}

	sectors = []string{"Manufacturing", "Logistics", "Food Processing", "Automotive", "Biotech", "Retail"}
)

func main() {
	out := flag.String("out", "recipients.csv", "output CSV path")
	count := flag.Int("count", 10, "number of recipient rows")
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Contact Person", "Mobile", "Name of the Exhibitor", "Sector"}); err != nil {
		log.Fatalf("failed to write header: %v", err)
	}

	for i := 0; i < *count; i++ {
		row := []string{
			names[rand.Intn(len(names))],
			fmt.Sprintf("+1555%07d", rand.Intn(10000000)),
			companies[rand.Intn(len(companies))],
			sectors[rand.Intn(len(sectors))],
		}
		if err := w.Write(row); err != nil {
			log.Fatalf("failed to write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("failed to flush csv: %v", err)
	}

	fmt.Printf("Wrote %d recipients to %s\n", *count, *out)
}
